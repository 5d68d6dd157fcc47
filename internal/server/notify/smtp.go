package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"
)

var ErrUnavailable = errors.New("notification channel not configured")

const resetSubject = "Redefinição de senha"

var resetHTML = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif;">
  <p>Olá,</p>
  <p>Recebemos um pedido para redefinir a senha da sua conta.</p>
  <p><a href="{{.Link}}">Redefinir senha</a></p>
  <p>O link expira em {{.ValidFor}}. Se você não fez este pedido, ignore este e-mail.</p>
</body>
</html>`))

const resetText = `Olá,

Recebemos um pedido para redefinir a senha da sua conta.
Abra o link abaixo para escolher uma nova senha:

%s

O link expira em %s. Se você não fez este pedido, ignore este e-mail.
`

// SMTPConfig holds the relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier mails reset links through an SMTP relay.
type SMTPNotifier struct {
	from   string
	dialer sender
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (n *SMTPNotifier) Available() bool { return n.from != "" && n.dialer != nil }

// SendPasswordReset renders and sends the reset message. The SMTP
// exchange cannot be interrupted; ctx only bounds how long the caller waits.
func (n *SMTPNotifier) SendPasswordReset(ctx context.Context, to, link string, validFor time.Duration) error {
	if !n.Available() {
		return ErrUnavailable
	}

	msg, err := n.resetMessage(to, link, validFor)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- n.dialer.DialAndSend(msg) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send reset mail: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *SMTPNotifier) resetMessage(to, link string, validFor time.Duration) (*gomail.Message, error) {
	var html bytes.Buffer
	data := struct {
		Link     string
		ValidFor string
	}{Link: link, ValidFor: humanDuration(validFor)}
	if err := resetHTML.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render reset mail: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", n.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", resetSubject)
	msg.SetBody("text/html", html.String())
	msg.AddAlternative("text/plain", fmt.Sprintf(resetText, link, data.ValidFor))
	return msg, nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hora"
		}
		return fmt.Sprintf("%d horas", h)
	case d >= time.Minute && d%time.Minute == 0:
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minuto"
		}
		return fmt.Sprintf("%d minutos", m)
	default:
		return d.String()
	}
}
