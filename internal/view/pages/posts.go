package pages

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PauloHFS/gothpress/internal/db"
	"github.com/PauloHFS/gothpress/internal/i18n"
	"github.com/PauloHFS/gothpress/internal/routes"
	"github.com/PauloHFS/gothpress/internal/view"
	"github.com/a-h/templ"
)

// PostCardProps carrega um item da listagem já com as permissões
// resolvidas pelo handler. CanEdit/CanDelete falsos = botão não existe
// no HTML.
type PostCardProps struct {
	ID        int64
	Title     string
	Author    string
	Summary   string
	CanEdit   bool
	CanDelete bool
}

type PostListProps struct {
	Posts      []PostCardProps
	Pagination view.Pagination
	Search     string
	CanCreate  bool
	Message    string
}

// PostList é a página pública de posts. Assina o canal "posts:all" por SSE
// para receber cards de posts novos sem recarregar.
func PostList(props PostListProps) templ.Component {
	return page("Posts", func(ctx context.Context, b *strings.Builder) {
		t := i18n.Get(ctx)

		fmt.Fprintf(b, "<h1>%s</h1>\n", t.Posts)
		flash(b, props.Message)

		fmt.Fprintf(b, "<form method=\"get\" action=\"%s\" role=\"search\">\n", routes.Posts)
		fmt.Fprintf(b, "<input type=\"search\" name=\"search\" value=\"%s\" placeholder=\"%s\">\n",
			templ.EscapeString(props.Search), t.Search)
		b.WriteString("</form>\n")

		if props.CanCreate {
			fmt.Fprintf(b, "<a href=\"%s\" role=\"button\">%s</a>\n", routes.NewPost, t.NewPost)
		}

		fmt.Fprintf(b, "<section id=\"post-list\" hx-ext=\"sse\" sse-connect=\"%s?stream=posts\">\n", routes.Events)
		b.WriteString("<div sse-swap=\"post_created\" hx-swap=\"afterbegin\" hx-target=\"#post-list\"></div>\n")
		for _, p := range props.Posts {
			postCard(ctx, b, p)
		}
		b.WriteString("</section>\n")

		pagination(b, props.Pagination, routes.Posts, props.Search)
	})
}

// PostCard renderiza um card isolado. Os handlers e o worker usam este
// componente para montar fragmentos SSE com o mesmo HTML da listagem.
func PostCard(props PostCardProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		postCard(ctx, &b, props)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func postCard(ctx context.Context, b *strings.Builder, p PostCardProps) {
	t := i18n.Get(ctx)

	fmt.Fprintf(b, "<article id=\"post-%d\">\n", p.ID)
	fmt.Fprintf(b, "<h3><a href=\"%s\">%s</a></h3>\n", routes.PostPath(p.ID), templ.EscapeString(p.Title))
	fmt.Fprintf(b, "<p><small>%s %s</small></p>\n", t.By, templ.EscapeString(p.Author))
	if p.Summary != "" {
		fmt.Fprintf(b, "<p>%s</p>\n", templ.EscapeString(p.Summary))
	}

	if p.CanEdit || p.CanDelete {
		b.WriteString("<footer>\n")
		if p.CanEdit {
			fmt.Fprintf(b, "<a href=\"%s\">%s</a>\n", routes.EditPostPath(p.ID), t.EditPost)
		}
		if p.CanDelete {
			fmt.Fprintf(b, "<form method=\"post\" action=\"%s\" style=\"display:inline\">%s<button type=\"submit\" class=\"secondary outline\">%s</button></form>\n",
				routes.DeletePostPath(p.ID), csrfField(ctx), t.DeletePost)
		}
		b.WriteString("</footer>\n")
	}
	b.WriteString("</article>\n")
}

type PostDetailProps struct {
	Post      db.Post
	Author    string
	CanEdit   bool
	CanDelete bool
	CanReview bool
	Message   string
}

// PostDetail mostra um post. Quem pode revisar vê o status de moderação e
// o resumo atualizando ao vivo via SSE no canal "post:{id}".
func PostDetail(props PostDetailProps) templ.Component {
	return page(props.Post.Title, func(ctx context.Context, b *strings.Builder) {
		t := i18n.Get(ctx)
		p := props.Post

		flash(b, props.Message)

		fmt.Fprintf(b, "<article hx-ext=\"sse\" sse-connect=\"%s?stream=post:%d\">\n", routes.Events, p.ID)
		fmt.Fprintf(b, "<h1>%s</h1>\n", templ.EscapeString(p.Title))
		fmt.Fprintf(b, "<p><small>%s %s</small> %s</p>\n",
			t.By, templ.EscapeString(props.Author), moderationBadge(t, p.ModerationStatus))

		if p.CoverPath.Valid {
			fmt.Fprintf(b, "<img src=\"%s\" alt=\"\">\n", templ.EscapeString(p.CoverPath.String))
		}

		// Conteúdo já sanitizado com bluemonday na entrada; sai como HTML.
		fmt.Fprintf(b, "<div>%s</div>\n", p.Content)

		b.WriteString("<section id=\"post-summary\" sse-swap=\"summary_ready\">\n")
		if p.Summary.Valid {
			fmt.Fprintf(b, "<h4>%s</h4>\n<p>%s</p>\n", t.Summary, templ.EscapeString(p.Summary.String))
		}
		b.WriteString("</section>\n")

		if props.CanEdit || props.CanDelete || props.CanReview {
			b.WriteString("<footer>\n")
			if props.CanEdit {
				fmt.Fprintf(b, "<a href=\"%s\" role=\"button\">%s</a>\n", routes.EditPostPath(p.ID), t.EditPost)
			}
			if props.CanReview {
				fmt.Fprintf(b, "<form method=\"post\" action=\"%s\" style=\"display:inline\">%s<button type=\"submit\" class=\"secondary\">%s</button></form>\n",
					routes.ReviewPostPath(p.ID), csrfField(ctx), t.Review)
			}
			if props.CanDelete {
				fmt.Fprintf(b, "<form method=\"post\" action=\"%s\" style=\"display:inline\">%s<button type=\"submit\" class=\"secondary outline\">%s</button></form>\n",
					routes.DeletePostPath(p.ID), csrfField(ctx), t.DeletePost)
			}
			b.WriteString("</footer>\n")
		}
		b.WriteString("</article>\n")
	})
}

// ModerationStatusBadge é o fragmento SSE enviado quando a moderação de um
// post muda; substitui o badge na página aberta.
func ModerationStatusBadge(t i18n.Translation, status string) string {
	return moderationBadge(t, status)
}

func moderationBadge(t i18n.Translation, status string) string {
	label := ""
	switch status {
	case "pending":
		label = t.StatusPending
	case "approved":
		label = t.StatusApproved
	case "rejected":
		label = t.StatusRejected
	default:
		return "<span id=\"moderation-status\" sse-swap=\"moderation_update\"></span>"
	}
	return fmt.Sprintf("<span id=\"moderation-status\" sse-swap=\"moderation_update\"><mark>%s</mark></span>", templ.EscapeString(label))
}

type PostFormProps struct {
	ID      int64 // 0 = post novo
	Title   string
	Content string
	Errors  map[string]string
}

// PostForm serve criação e edição. Os erros de validação chegam por campo
// e só existem depois que a autorização passou.
func PostForm(props PostFormProps) templ.Component {
	title := "Novo post"
	action := routes.Posts
	if props.ID != 0 {
		title = "Editar post"
		action = routes.EditPostPath(props.ID)
	}

	return page(title, func(ctx context.Context, b *strings.Builder) {
		t := i18n.Get(ctx)

		if props.ID != 0 {
			fmt.Fprintf(b, "<h1>%s</h1>\n", t.EditPost)
		} else {
			fmt.Fprintf(b, "<h1>%s</h1>\n", t.NewPost)
		}

		fmt.Fprintf(b, "<form method=\"post\" action=\"%s\">\n%s", action, csrfField(ctx))

		fmt.Fprintf(b, "<label>%s<input type=\"text\" name=\"title\" value=\"%s\"%s></label>\n",
			t.Title, templ.EscapeString(props.Title), invalidAttr(props.Errors, "title"))
		fieldError(b, props.Errors, "title")

		fmt.Fprintf(b, "<label>%s<textarea name=\"content\" rows=\"12\"%s>%s</textarea></label>\n",
			t.Content, invalidAttr(props.Errors, "content"), templ.EscapeString(props.Content))
		fieldError(b, props.Errors, "content")

		fmt.Fprintf(b, "<button type=\"submit\">%s</button> <a href=\"%s\">%s</a>\n</form>\n",
			t.Save, routes.Posts, t.Cancel)

		if props.ID != 0 {
			fmt.Fprintf(b, "<form method=\"post\" action=\"%s\" enctype=\"multipart/form-data\">\n%s", routes.CoverPostPath(props.ID), csrfField(ctx))
			b.WriteString("<label>Capa<input type=\"file\" name=\"cover\" accept=\"image/*\"></label>\n")
			fmt.Fprintf(b, "<button type=\"submit\" class=\"secondary\">%s</button>\n</form>\n", t.Save)
		}
	})
}

func invalidAttr(errs map[string]string, field string) string {
	if _, ok := errs[field]; ok {
		return " aria-invalid=\"true\""
	}
	return ""
}

func fieldError(b *strings.Builder, errs map[string]string, field string) {
	if msg, ok := errs[field]; ok {
		fmt.Fprintf(b, "<small>%s</small>\n", templ.EscapeString(msg))
	}
}

func pagination(b *strings.Builder, p view.Pagination, base, search string) {
	if p.TotalPages() <= 1 {
		return
	}

	b.WriteString("<nav aria-label=\"pagination\">\n<ul>\n")
	if p.HasPrevious() {
		fmt.Fprintf(b, "<li><a href=\"%s\">&laquo;</a></li>\n", p.PageURL(base, p.PreviousPage(), search))
	}
	for _, n := range p.Window() {
		if n == p.CurrentPage {
			fmt.Fprintf(b, "<li><a href=\"%s\" aria-current=\"page\">%d</a></li>\n", p.PageURL(base, n, search), n)
		} else {
			fmt.Fprintf(b, "<li><a href=\"%s\">%d</a></li>\n", p.PageURL(base, n, search), n)
		}
	}
	if p.HasNext() {
		fmt.Fprintf(b, "<li><a href=\"%s\">&raquo;</a></li>\n", p.PageURL(base, p.NextPage(), search))
	}
	b.WriteString("</ul>\n</nav>\n")
}
