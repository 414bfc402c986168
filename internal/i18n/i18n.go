package i18n

import (
	"context"

	"github.com/PauloHFS/gothpress/internal/contextkeys"
	"github.com/PauloHFS/gothpress/internal/policies"
)

type Translation struct {
	Login     string
	Logout    string
	Email     string
	Password  string
	Register  string
	Welcome   string
	Dashboard string

	Posts      string
	MyPosts    string
	NewPost    string
	EditPost   string
	DeletePost string
	Review     string
	Title      string
	Content    string
	Summary    string
	Save       string
	Cancel     string
	Search     string
	By         string

	StatusPending  string
	StatusApproved string
	StatusRejected string

	NotFound      string
	DeniedView    string
	DeniedCreate  string
	DeniedUpdate  string
	DeniedDelete  string
	DeniedReview  string
	DeniedDefault string
}

var ptBR = Translation{
	Login:     "Entrar",
	Logout:    "Sair",
	Email:     "E-mail",
	Password:  "Senha",
	Register:  "Registrar",
	Welcome:   "Bem-vindo",
	Dashboard: "Painel de Controle",

	Posts:      "Posts",
	MyPosts:    "Meus posts",
	NewPost:    "Novo post",
	EditPost:   "Editar post",
	DeletePost: "Excluir post",
	Review:     "Revisar",
	Title:      "Título",
	Content:    "Conteúdo",
	Summary:    "Resumo",
	Save:       "Salvar",
	Cancel:     "Cancelar",
	Search:     "Buscar",
	By:         "por",

	StatusPending:  "Aguardando revisão",
	StatusApproved: "Aprovado",
	StatusRejected: "Rejeitado",

	NotFound:      "Post não encontrado",
	DeniedView:    "Você não tem permissão para ver este post",
	DeniedCreate:  "Você precisa estar logado para criar posts",
	DeniedUpdate:  "Você não tem permissão para editar este post",
	DeniedDelete:  "Você não tem permissão para excluir este post",
	DeniedReview:  "Você não tem permissão para revisar este post",
	DeniedDefault: "Você não tem permissão para fazer isso",
}

var enUS = Translation{
	Login:     "Login",
	Logout:    "Logout",
	Email:     "Email",
	Password:  "Password",
	Register:  "Register",
	Welcome:   "Welcome",
	Dashboard: "Dashboard",

	Posts:      "Posts",
	MyPosts:    "My posts",
	NewPost:    "New post",
	EditPost:   "Edit post",
	DeletePost: "Delete post",
	Review:     "Review",
	Title:      "Title",
	Content:    "Content",
	Summary:    "Summary",
	Save:       "Save",
	Cancel:     "Cancel",
	Search:     "Search",
	By:         "by",

	StatusPending:  "Pending review",
	StatusApproved: "Approved",
	StatusRejected: "Rejected",

	NotFound:      "Post not found",
	DeniedView:    "You are not allowed to view this post",
	DeniedCreate:  "You must be logged in to create posts",
	DeniedUpdate:  "You are not allowed to edit this post",
	DeniedDelete:  "You are not allowed to delete this post",
	DeniedReview:  "You are not allowed to review this post",
	DeniedDefault: "You are not allowed to do that",
}

// Get retorna as traduções baseadas no idioma do contexto
func Get(ctx context.Context) Translation {
	locale, _ := ctx.Value(contextkeys.LocaleKey).(string)
	switch locale {
	case "en":
		return enUS
	default:
		return ptBR
	}
}

// DenialFor escolhe a mensagem de negação para a ação recusada.
func (t Translation) DenialFor(action policies.Action) string {
	switch action {
	case policies.ActionView, policies.ActionViewAny:
		return t.DeniedView
	case policies.ActionCreate:
		return t.DeniedCreate
	case policies.ActionUpdate:
		return t.DeniedUpdate
	case policies.ActionDelete:
		return t.DeniedDelete
	case policies.ActionReview:
		return t.DeniedReview
	default:
		return t.DeniedDefault
	}
}
