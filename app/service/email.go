package service

import (
	"context"

	"github.com/vibast-solutions/ms-go-commerce/config"

	"github.com/wneessen/go-mail"
)

// Mailer sends templated mail through the configured SMTP relay. Callers
// never await delivery; see sendMailAsync in the user service.
type Mailer struct {
	client *mail.Client
	from   string
}

func NewMailer(cfg *config.Config) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, err
	}

	return &Mailer{client: client, from: cfg.SMTPFrom}, nil
}

func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	return m.client.DialAndSendWithContext(ctx, msg)
}
