// Package pages contém as páginas e fragmentos HTML da aplicação. Os
// componentes são templ.ComponentFunc escritos à mão: mesma interface dos
// componentes gerados (Render / templ.Handler nos call sites), sem etapa
// de geração no build.
//
// Regra de ouro: nenhum componente decide autorização. Os handlers avaliam
// as políticas e passam booleanos `Can*` prontos; ação negada não renderiza
// o botão: esconder, nunca só desabilitar.
package pages

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PauloHFS/gothpress/internal/i18n"
	"github.com/PauloHFS/gothpress/internal/routes"
	"github.com/PauloHFS/gothpress/internal/view"
	"github.com/a-h/templ"
)

// body escreve o miolo de uma página. O layout cuida de head, nav e footer.
type body func(ctx context.Context, b *strings.Builder)

func page(title string, content body) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder

		b.WriteString("<!DOCTYPE html>\n<html lang=\"pt-BR\">\n<head>\n")
		b.WriteString("<meta charset=\"utf-8\">\n")
		b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
		fmt.Fprintf(&b, "<title>%s | GOTHPress</title>\n", templ.EscapeString(title))
		b.WriteString("<link rel=\"stylesheet\" href=\"https://cdn.jsdelivr.net/npm/@picocss/pico@2/css/pico.min.css\">\n")
		b.WriteString("<link rel=\"stylesheet\" href=\"/assets/css/app.css\">\n")
		b.WriteString("<script src=\"https://unpkg.com/htmx.org@2.0.4\"></script>\n")
		b.WriteString("<script src=\"https://unpkg.com/htmx-ext-sse@2.2.2\"></script>\n")
		b.WriteString("</head>\n<body>\n<main class=\"container\">\n")

		nav(ctx, &b)
		content(ctx, &b)

		b.WriteString("</main>\n</body>\n</html>\n")

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func nav(ctx context.Context, b *strings.Builder) {
	t := i18n.Get(ctx)

	b.WriteString("<nav>\n<ul><li><strong><a href=\"" + routes.Posts + "\">GOTHPress</a></strong></li></ul>\n<ul>\n")
	if user, ok := view.CurrentUser(ctx); ok {
		fmt.Fprintf(b, "<li><a href=\"%s\">%s</a></li>\n", routes.Dashboard, templ.EscapeString(user.Name))
		fmt.Fprintf(b, "<li><form method=\"post\" action=\"%s\">%s<button type=\"submit\" class=\"outline\">%s</button></form></li>\n",
			routes.Logout, csrfField(ctx), t.Logout)
	} else {
		fmt.Fprintf(b, "<li><a href=\"%s\">%s</a></li>\n", routes.Login, t.Login)
		fmt.Fprintf(b, "<li><a href=\"%s\" role=\"button\">%s</a></li>\n", routes.Register, t.Register)
	}
	b.WriteString("</ul>\n</nav>\n")
}

// csrfField gera o input oculto que o nosurf espera em todo POST de form.
func csrfField(ctx context.Context) string {
	return fmt.Sprintf("<input type=\"hidden\" name=\"csrf_token\" value=\"%s\">", templ.EscapeString(view.CSRFToken(ctx)))
}

// flash exibe a mensagem vinda da query string (?message=...), quando há.
func flash(b *strings.Builder, msg string) {
	if msg == "" {
		return
	}
	fmt.Fprintf(b, "<p role=\"alert\"><mark>%s</mark></p>\n", templ.EscapeString(msg))
}

func errorBanner(b *strings.Builder, msg string) {
	if msg == "" {
		return
	}
	fmt.Fprintf(b, "<p role=\"alert\"><strong>%s</strong></p>\n", templ.EscapeString(msg))
}
