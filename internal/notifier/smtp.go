package notifier

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"riskgate/internal/models"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

type SMTPNotifier struct {
	config    models.MailerConfiguration
	templates *template.Template
}

func NewSMTPNotifier(config models.MailerConfiguration) *SMTPNotifier {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		zap.L().Fatal("Failed to parse notification templates", zap.Error(err))
	}
	return &SMTPNotifier{config: config, templates: templates}
}

func (s *SMTPNotifier) client() (*mail.Client, error) {
	options := []mail.Option{
		mail.WithPort(s.config.Port),
	}

	if s.config.Username != "" {
		options = append(options,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.config.Username),
			mail.WithPassword(s.config.Password),
		)
	}

	if s.config.EnableTLS {
		options = append(options, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		options = append(options, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	return mail.NewClient(s.config.Host, options...)
}

func (s *SMTPNotifier) NotifyFromTemplate(
	to string,
	subject string,
	templateName string,
	data any,
) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName+".html", data); err != nil {
		return fmt.Errorf("failed to render template %s: %w", templateName, err)
	}

	msg := mail.NewMsg()
	if err := msg.From(s.config.Sender); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body.String())

	client, err := s.client()
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	if err = client.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	zap.L().Info("Notification sent",
		zap.String("to", to),
		zap.String("template_name", templateName),
	)

	return nil
}
