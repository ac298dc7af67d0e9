package domain

import "context"

// Email template names.
const (
	TemplateSignup         = "signup"
	TemplateLogin          = "login"
	TemplateForgotPassword = "forgotPassword"
	TemplateResetPassword  = "resetPassword"
)

// Email is an outbound message rendered from a named template.
type Email struct {
	To       string
	Subject  string
	Template string
	Data     map[string]string
}

// Mailer delivers rendered email.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}
