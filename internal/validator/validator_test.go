package validator

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"endereço simples", "test@example.com", false},
		{"subdomínio", "user@sub.domain.com", false},
		{"alias com mais", "user+blog@example.com", false},
		{"sem arroba", "testexample.com", true},
		{"sem domínio", "test@", true},
		{"sem usuário", "@example.com", true},
		{"domínio sem ponto", "user@localhost", true},
		{"display name não passa", "User <user@example.com>", true},
		{"vazio", "", true},
		{"longo demais", strings.Repeat("a", 250) + "@x.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		pwd     string
		wantErr bool
	}{
		{"oito caracteres", "12345678", false},
		{"senha longa", "verylongpassword1234567890", false},
		{"curta demais", "pass", true},
		{"vazia", "", true},
		{"acima do teto", strings.Repeat("x", 129), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.pwd)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRegistration(t *testing.T) {
	t.Run("cadastro válido", func(t *testing.T) {
		result := ValidateRegistration("test@example.com", "password123")
		if !result.Valid || len(result.Errors) != 0 {
			t.Errorf("esperado válido, obtido %+v", result)
		}
	})

	t.Run("os dois campos reportam", func(t *testing.T) {
		result := ValidateRegistration("invalid", "123")
		if result.Valid {
			t.Fatal("esperado inválido")
		}
		fields := make(map[string]bool)
		for _, e := range result.Errors {
			fields[e.Field] = true
		}
		if !fields["email"] || !fields["password"] {
			t.Errorf("esperado erro em email e password, obtido %+v", result.Errors)
		}
	})

	t.Run("um campo ruim não contamina o outro", func(t *testing.T) {
		result := ValidateRegistration("test@example.com", "123")
		if result.Valid {
			t.Fatal("esperado inválido")
		}
		for _, e := range result.Errors {
			if e.Field == "email" {
				t.Errorf("email válido não deveria reportar erro: %+v", e)
			}
		}
	})
}

func TestValidatePost(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		content   string
		wantValid bool
		wantField string
	}{
		{"post válido", "Meu primeiro post", "Algum conteúdo aqui.", true, ""},
		{"título vazio", "", "conteúdo", false, "title"},
		{"título só de espaços", "   ", "conteúdo", false, "title"},
		{"título longo demais", strings.Repeat("a", 201), "conteúdo", false, "title"},
		{"título no limite", strings.Repeat("a", 200), "conteúdo", true, ""},
		{"conteúdo vazio", "Título", "", false, "content"},
		{"conteúdo longo demais", "Título", strings.Repeat("x", 50001), false, "content"},
		{"conteúdo no limite", "Título", strings.Repeat("x", 50000), true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidatePost(tt.title, tt.content)
			if result.Valid != tt.wantValid {
				t.Errorf("ValidatePost() valid = %v, wantValid %v (errors: %v)", result.Valid, tt.wantValid, result.Errors)
			}
			if tt.wantField == "" {
				return
			}
			found := false
			for _, e := range result.Errors {
				if e.Field == tt.wantField {
					found = true
					if e.Message == "" {
						t.Errorf("ValidatePost() erro no campo %s sem mensagem", tt.wantField)
					}
				}
			}
			if !found {
				t.Errorf("ValidatePost() esperado erro no campo %s, obtido %v", tt.wantField, result.Errors)
			}
		})
	}
}

func TestValidateStruct(t *testing.T) {
	type payload struct {
		Name string `validate:"required"`
	}

	if err := Validate(payload{}); err == nil {
		t.Error("campo obrigatório ausente deveria falhar")
	}
	if err := Validate(payload{Name: "ok"}); err != nil {
		t.Errorf("struct válido falhou: %v", err)
	}
}
