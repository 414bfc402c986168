package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/PauloHFS/gothpress/internal/i18n"
	"github.com/PauloHFS/gothpress/internal/routes"
	"github.com/a-h/templ"
)

// Login renderiza o formulário de entrada. message é o flash vindo de um
// redirect (conta criada, senha alterada); oauth liga o botão de login
// social quando o provider está configurado.
func Login(message, errorMsg string, oauth bool) templ.Component {
	return page("Login", func(ctx context.Context, b *strings.Builder) {
		t := i18n.Get(ctx)

		fmt.Fprintf(b, "<h1>%s</h1>\n", t.Login)
		flash(b, message)
		errorBanner(b, errorMsg)

		fmt.Fprintf(b, "<form method=\"post\" action=\"%s\">\n%s", routes.Login, csrfField(ctx))
		fmt.Fprintf(b, "<label>%s<input type=\"email\" name=\"email\" autocomplete=\"email\" required></label>\n", t.Email)
		fmt.Fprintf(b, "<label>%s<input type=\"password\" name=\"password\" autocomplete=\"current-password\" required></label>\n", t.Password)
		fmt.Fprintf(b, "<button type=\"submit\">%s</button>\n</form>\n", t.Login)

		if oauth {
			fmt.Fprintf(b, "<a href=\"%s\" role=\"button\" class=\"secondary\">SSO</a>\n", routes.OAuthLogin)
		}

		fmt.Fprintf(b, "<p><a href=\"%s\">%s?</a> · <a href=\"%s\">%s</a></p>\n",
			routes.ForgotPassword, t.Password, routes.Register, t.Register)
	})
}

// TwoFactor é o segundo passo do login para contas com TOTP habilitado.
func TwoFactor(errorMsg string) templ.Component {
	return page("2FA", func(ctx context.Context, b *strings.Builder) {
		t := i18n.Get(ctx)

		b.WriteString("<h1>2FA</h1>\n")
		errorBanner(b, errorMsg)

		fmt.Fprintf(b, "<form method=\"post\" action=\"%s\">\n%s", routes.TwoFactor, csrfField(ctx))
		b.WriteString("<label>Código<input type=\"text\" name=\"code\" inputmode=\"numeric\" pattern=\"[0-9]{6}\" autocomplete=\"one-time-code\" autofocus required></label>\n")
		fmt.Fprintf(b, "<button type=\"submit\">%s</button>\n</form>\n", t.Login)
	})
}

// TwoFactorSetup guia a ativação do 2FA: mostra o segredo recém-gerado e
// pede um código do app para confirmar. Com enabled, só informa o estado.
func TwoFactorSetup(secret, url, errorMsg string, enabled bool) templ.Component {
	return page("2FA", func(ctx context.Context, b *strings.Builder) {
		t := i18n.Get(ctx)

		b.WriteString("<h1>Autenticação em duas etapas</h1>\n")
		errorBanner(b, errorMsg)

		if enabled {
			b.WriteString("<p><mark>2FA ativo nesta conta.</mark></p>\n")
			return
		}

		if secret == "" {
			fmt.Fprintf(b, "<form method=\"post\" action=\"%s\">\n%s", routes.TwoFactorSetup, csrfField(ctx))
			b.WriteString("<button type=\"submit\">Gerar segredo</button>\n</form>\n")
			return
		}

		fmt.Fprintf(b, "<p>Adicione no app autenticador: <a href=\"%s\">%s</a></p>\n",
			templ.EscapeString(url), templ.EscapeString(secret))

		fmt.Fprintf(b, "<form method=\"post\" action=\"%s\">\n%s", routes.TwoFactorSetup, csrfField(ctx))
		b.WriteString("<input type=\"hidden\" name=\"step\" value=\"confirm\">\n")
		b.WriteString("<label>Código<input type=\"text\" name=\"code\" inputmode=\"numeric\" pattern=\"[0-9]{6}\" autocomplete=\"one-time-code\" required></label>\n")
		fmt.Fprintf(b, "<button type=\"submit\">%s</button>\n</form>\n", t.Save)
	})
}

func Register(errorMsg string) templ.Component {
	return page("Registro", func(ctx context.Context, b *strings.Builder) {
		t := i18n.Get(ctx)

		fmt.Fprintf(b, "<h1>%s</h1>\n", t.Register)
		errorBanner(b, errorMsg)

		fmt.Fprintf(b, "<form method=\"post\" action=\"%s\">\n%s", routes.Register, csrfField(ctx))
		b.WriteString("<label>Nome<input type=\"text\" name=\"name\" autocomplete=\"name\" required></label>\n")
		fmt.Fprintf(b, "<label>%s<input type=\"email\" name=\"email\" autocomplete=\"email\" required></label>\n", t.Email)
		fmt.Fprintf(b, "<label>%s<input type=\"password\" name=\"password\" autocomplete=\"new-password\" required></label>\n", t.Password)
		fmt.Fprintf(b, "<button type=\"submit\">%s</button>\n</form>\n", t.Register)

		fmt.Fprintf(b, "<p><a href=\"%s\">%s</a></p>\n", routes.Login, t.Login)
	})
}

func ForgotPassword(msg string) templ.Component {
	return page("Recuperar senha", func(ctx context.Context, b *strings.Builder) {
		t := i18n.Get(ctx)

		b.WriteString("<h1>Recuperar senha</h1>\n")
		flash(b, msg)

		fmt.Fprintf(b, "<form method=\"post\" action=\"%s\">\n%s", routes.ForgotPassword, csrfField(ctx))
		fmt.Fprintf(b, "<label>%s<input type=\"email\" name=\"email\" autocomplete=\"email\" required></label>\n", t.Email)
		b.WriteString("<button type=\"submit\">Enviar link</button>\n</form>\n")
	})
}

func ResetPassword(token, errorMsg string) templ.Component {
	return page("Redefinir senha", func(ctx context.Context, b *strings.Builder) {
		t := i18n.Get(ctx)

		b.WriteString("<h1>Redefinir senha</h1>\n")
		errorBanner(b, errorMsg)

		fmt.Fprintf(b, "<form method=\"post\" action=\"%s\">\n%s", routes.ResetPassword, csrfField(ctx))
		fmt.Fprintf(b, "<input type=\"hidden\" name=\"token\" value=\"%s\">\n", templ.EscapeString(token))
		fmt.Fprintf(b, "<label>%s<input type=\"password\" name=\"password\" autocomplete=\"new-password\" required></label>\n", t.Password)
		fmt.Fprintf(b, "<button type=\"submit\">%s</button>\n</form>\n", t.Save)
	})
}
