package mailer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/a-h/templ"

	"github.com/msomdec/passgate/internal/domain"
)

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.977 generate

var templates = map[string]func(data map[string]string) templ.Component{
	domain.TemplateSignup: func(d map[string]string) templ.Component {
		return otpEmail("Verify your email", d["name"], "Use this code to verify your email address:", d["otp"])
	},
	domain.TemplateForgotPassword: func(d map[string]string) templ.Component {
		return otpEmail("Reset your password", d["name"], "Use this code to reset your password:", d["otp"])
	},
	domain.TemplateLogin: func(d map[string]string) templ.Component {
		return noticeEmail("New login", d["name"], "We noticed a new login to your account:", d["email"],
			"If this was not you, reset your password now.")
	},
	domain.TemplateResetPassword: func(d map[string]string) templ.Component {
		return noticeEmail("Password changed", d["name"], "The password for this account was changed:", d["email"],
			"If you did not do this, contact support immediately.")
	},
}

// Render renders the named template to HTML.
func Render(ctx context.Context, name string, data map[string]string) (string, error) {
	tmpl, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl(data).Render(ctx, &buf); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
