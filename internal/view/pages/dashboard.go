package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/PauloHFS/gothpress/internal/db"
	"github.com/PauloHFS/gothpress/internal/i18n"
	"github.com/PauloHFS/gothpress/internal/routes"
	"github.com/PauloHFS/gothpress/internal/view"
	"github.com/a-h/templ"
)

type DashboardStats struct {
	TotalPosts int64
	TotalUsers int64
}

type DashboardProps struct {
	User       db.User
	Posts      []PostCardProps
	Pagination view.Pagination
	Stats      *DashboardStats // nil quando o usuário não tem papel com wildcard
	Message    string
}

// Dashboard lista os posts do usuário logado. Papéis com wildcard também
// veem os totais do site; o handler só preenche Stats nesse caso.
func Dashboard(props DashboardProps) templ.Component {
	return page("Dashboard", func(ctx context.Context, b *strings.Builder) {
		t := i18n.Get(ctx)

		fmt.Fprintf(b, "<h1>%s, %s</h1>\n", t.Welcome, templ.EscapeString(props.User.Name))
		flash(b, props.Message)

		if props.Stats != nil {
			b.WriteString("<div class=\"grid\">\n")
			fmt.Fprintf(b, "<article><h2>%d</h2><p>Posts</p></article>\n", props.Stats.TotalPosts)
			fmt.Fprintf(b, "<article><h2>%d</h2><p>Usuários</p></article>\n", props.Stats.TotalUsers)
			b.WriteString("</div>\n")
		}

		fmt.Fprintf(b, "<h2>%s</h2>\n", t.MyPosts)
		fmt.Fprintf(b, "<a href=\"%s\" role=\"button\">%s</a>\n", routes.NewPost, t.NewPost)

		b.WriteString("<section>\n")
		if len(props.Posts) == 0 {
			b.WriteString("<p>Nenhum post ainda.</p>\n")
		}
		for _, p := range props.Posts {
			postCard(ctx, b, p)
		}
		b.WriteString("</section>\n")

		pagination(b, props.Pagination, routes.Dashboard, "")
	})
}
