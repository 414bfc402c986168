// Package validator concentra as regras de entrada de formulários e da
// API JSON. A validação roda sempre depois da autorização: quem não pode
// agir recebe 403 antes de qualquer mensagem sobre campos.
package validator

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
	maxEmailLength    = 254
	maxTitleLength    = 200
	maxContentLength  = 50000
)

var validate = validator.New()

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

func (r *ValidationResult) addError(field string, err error) {
	if err == nil {
		return
	}
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: err.Error()})
}

// Validate aplica as tags `validate` de um struct.
func Validate(s any) error {
	return validate.Struct(s)
}

// ValidateEmail aceita só o endereço puro: display name é rejeitado, e o
// domínio precisa de um ponto, sem ele é quase sempre erro de digitação.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email é obrigatório")
	}
	if len(email) > maxEmailLength {
		return fmt.Errorf("email muito longo (máximo %d caracteres)", maxEmailLength)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("formato de email inválido")
	}

	domain := email[strings.LastIndexByte(email, '@')+1:]
	if !strings.Contains(domain, ".") {
		return errors.New("formato de email inválido")
	}
	return nil
}

func ValidatePassword(password string) error {
	switch {
	case password == "":
		return errors.New("senha é obrigatória")
	case len(password) < minPasswordLength:
		return fmt.Errorf("senha deve ter pelo menos %d caracteres", minPasswordLength)
	case len(password) > maxPasswordLength:
		return fmt.Errorf("senha muito longa (máximo %d caracteres)", maxPasswordLength)
	}
	return nil
}

func ValidateRegistration(email, password string) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []ValidationError{}}
	result.addError("email", ValidateEmail(email))
	result.addError("password", ValidatePassword(password))
	return result
}

// PostInput é o shape validado de criação/edição de post.
type PostInput struct {
	Title   string `validate:"required,max=200"`
	Content string `validate:"required,max=50000"`
}

func ValidatePost(title, content string) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []ValidationError{}}

	input := PostInput{Title: strings.TrimSpace(title), Content: content}
	err := validate.Struct(input)
	if err == nil {
		return result
	}

	result.Valid = false

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		result.Errors = append(result.Errors, ValidationError{Field: "post", Message: "entrada inválida"})
		return result
	}

	for _, fe := range verrs {
		result.Errors = append(result.Errors, ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: postFieldMessage(fe),
		})
	}
	return result
}

func postFieldMessage(fe validator.FieldError) string {
	switch {
	case fe.Field() == "Title" && fe.Tag() == "required":
		return "título é obrigatório"
	case fe.Field() == "Title" && fe.Tag() == "max":
		return fmt.Sprintf("título muito longo (máximo %d caracteres)", maxTitleLength)
	case fe.Field() == "Content" && fe.Tag() == "required":
		return "conteúdo é obrigatório"
	case fe.Field() == "Content" && fe.Tag() == "max":
		return fmt.Sprintf("conteúdo muito longo (máximo %d caracteres)", maxContentLength)
	default:
		return "valor inválido"
	}
}
