package pages

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/PauloHFS/gothpress/internal/contextkeys"
	"github.com/PauloHFS/gothpress/internal/db"
)

func TestPostDetail_BotoesPorPermissao(t *testing.T) {
	post := db.Post{ID: 42, Title: "Go e templates", Content: "<p>conteúdo</p>"}

	tests := []struct {
		name      string
		props     PostDetailProps
		esperados []string
		ausentes  []string
	}{
		{
			name:      "dono vê editar, revisar e excluir",
			props:     PostDetailProps{Post: post, Author: "Ana", CanEdit: true, CanDelete: true, CanReview: true},
			esperados: []string{"/posts/42/edit", "/posts/42/review", "/posts/42/delete"},
		},
		{
			name:     "visitante não vê nenhum botão",
			props:    PostDetailProps{Post: post, Author: "Ana"},
			ausentes: []string{"/posts/42/edit", "/posts/42/review", "/posts/42/delete", "<footer>"},
		},
		{
			name:      "pode editar mas não excluir",
			props:     PostDetailProps{Post: post, Author: "Ana", CanEdit: true},
			esperados: []string{"/posts/42/edit"},
			ausentes:  []string{"/posts/42/delete", "/posts/42/review"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b strings.Builder
			if err := PostDetail(tt.props).Render(context.Background(), &b); err != nil {
				t.Fatalf("render: %v", err)
			}
			html := b.String()

			for _, want := range tt.esperados {
				if !strings.Contains(html, want) {
					t.Errorf("esperava %q no HTML", want)
				}
			}
			for _, notWant := range tt.ausentes {
				if strings.Contains(html, notWant) {
					t.Errorf("não esperava %q no HTML", notWant)
				}
			}
		})
	}
}

func TestPostDetail_SSE(t *testing.T) {
	props := PostDetailProps{
		Post:   db.Post{ID: 7, Title: "Ao vivo", Content: "<p>x</p>"},
		Author: "Ana",
	}

	var b strings.Builder
	if err := PostDetail(props).Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	html := b.String()

	if !strings.Contains(html, `sse-connect="/events?stream=post:7"`) {
		t.Error("página do post deveria assinar o stream post:7")
	}
	if !strings.Contains(html, `sse-swap="summary_ready"`) {
		t.Error("página do post deveria ter o alvo do resumo")
	}
	if !strings.Contains(html, `sse-swap="moderation_update"`) {
		t.Error("página do post deveria ter o alvo do status de moderação")
	}
}

func TestPostDetail_ExibeSummaryQuandoExiste(t *testing.T) {
	props := PostDetailProps{
		Post: db.Post{
			ID:      7,
			Title:   "Com resumo",
			Content: "<p>x</p>",
			Summary: sql.NullString{String: "resumo do post", Valid: true},
		},
		Author: "Ana",
	}

	var b strings.Builder
	if err := PostDetail(props).Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}

	if !strings.Contains(b.String(), "resumo do post") {
		t.Error("resumo deveria aparecer na página")
	}
}

func TestPostList_BotaoNovoPost(t *testing.T) {
	tests := []struct {
		name      string
		canCreate bool
		want      bool
	}{
		{"logado vê o botão", true, true},
		{"anônimo não vê o botão", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b strings.Builder
			err := PostList(PostListProps{CanCreate: tt.canCreate}).Render(context.Background(), &b)
			if err != nil {
				t.Fatalf("render: %v", err)
			}

			got := strings.Contains(b.String(), `href="/posts/new"`)
			if got != tt.want {
				t.Errorf("botão de novo post presente = %v, esperava %v", got, tt.want)
			}
		})
	}
}

func TestPostCard_EscapaTitulo(t *testing.T) {
	props := PostCardProps{ID: 1, Title: `<script>alert("x")</script>`, Author: "Ana"}

	var b strings.Builder
	if err := PostCard(props).Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	html := b.String()

	if strings.Contains(html, "<script>") {
		t.Error("título não foi escapado")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Error("título deveria aparecer escapado")
	}
}

func TestPostCard_BotoesSoComPermissao(t *testing.T) {
	var b strings.Builder
	if err := PostCard(PostCardProps{ID: 3, Title: "t", Author: "a"}).Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}

	if strings.Contains(b.String(), "/posts/3/edit") || strings.Contains(b.String(), "/posts/3/delete") {
		t.Error("card sem permissão não deveria ter botões de ação")
	}
}

func TestPostForm_ErrosDeCampo(t *testing.T) {
	props := PostFormProps{
		Title:  "ab",
		Errors: map[string]string{"title": "Título deve ter pelo menos 3 caracteres"},
	}

	var b strings.Builder
	if err := PostForm(props).Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	html := b.String()

	if !strings.Contains(html, `aria-invalid="true"`) {
		t.Error("campo com erro deveria estar marcado como inválido")
	}
	if !strings.Contains(html, "Título deve ter pelo menos 3 caracteres") {
		t.Error("mensagem de erro deveria aparecer no form")
	}
}

func TestPostForm_EdicaoMostraUploadDeCapa(t *testing.T) {
	var b strings.Builder
	if err := PostForm(PostFormProps{ID: 9, Title: "t", Content: "c"}).Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	html := b.String()

	if !strings.Contains(html, `action="/posts/9/edit"`) {
		t.Error("form de edição deveria postar em /posts/9/edit")
	}
	if !strings.Contains(html, `action="/posts/9/cover"`) {
		t.Error("form de edição deveria ter upload de capa")
	}
}

func TestNav_UsuarioLogado(t *testing.T) {
	ctx := context.WithValue(context.Background(), contextkeys.UserContextKey, db.User{ID: 1, Name: "Ana"})
	ctx = context.WithValue(ctx, contextkeys.CSRFTokenKey, "tok123")

	var b strings.Builder
	if err := PostList(PostListProps{}).Render(ctx, &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	html := b.String()

	if !strings.Contains(html, "Ana") {
		t.Error("nav deveria mostrar o nome do usuário")
	}
	if !strings.Contains(html, `action="/logout"`) {
		t.Error("nav deveria ter o form de logout")
	}
	if !strings.Contains(html, `value="tok123"`) {
		t.Error("form de logout deveria carregar o token CSRF")
	}
	if strings.Contains(html, `href="/login"`) {
		t.Error("logado não deveria ver link de login")
	}
}

func TestNav_Anonimo(t *testing.T) {
	var b strings.Builder
	if err := PostList(PostListProps{}).Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	html := b.String()

	if !strings.Contains(html, `href="/login"`) || !strings.Contains(html, `href="/register"`) {
		t.Error("anônimo deveria ver login e registro")
	}
	if strings.Contains(html, `action="/logout"`) {
		t.Error("anônimo não deveria ver logout")
	}
}

func TestDashboard_StatsSoParaWildcard(t *testing.T) {
	user := db.User{ID: 1, Name: "Ana"}

	t.Run("sem stats", func(t *testing.T) {
		var b strings.Builder
		if err := Dashboard(DashboardProps{User: user}).Render(context.Background(), &b); err != nil {
			t.Fatalf("render: %v", err)
		}
		if strings.Contains(b.String(), "Usuários") {
			t.Error("usuário comum não deveria ver totais do site")
		}
	})

	t.Run("com stats", func(t *testing.T) {
		props := DashboardProps{User: user, Stats: &DashboardStats{TotalPosts: 10, TotalUsers: 3}}
		var b strings.Builder
		if err := Dashboard(props).Render(context.Background(), &b); err != nil {
			t.Fatalf("render: %v", err)
		}
		if !strings.Contains(b.String(), "Usuários") {
			t.Error("wildcard deveria ver os totais do site")
		}
	})
}
