package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"luxwise/cv-back/config"
)

var verificationTmpl = template.Must(template.New("verification").Parse(`<html>
<body>
<p>Hi {{.Name}},</p>
<p>Use the code below to finish creating your account:</p>
<h2 style="letter-spacing:4px">{{.Code}}</h2>
<p>The code expires in {{.Minutes}} minutes. If you didn't ask for it you can ignore this email.</p>
</body>
</html>`))

type VerificationMail struct {
	To   string
	Name string
	Code string
	TTL  time.Duration
}

type Mailer interface {
	SendVerification(ctx context.Context, m VerificationMail) error
}

func renderVerification(m VerificationMail) (string, error) {
	var buf bytes.Buffer

	err := verificationTmpl.Execute(&buf, map[string]any{
		"Name":    m.Name,
		"Code":    m.Code,
		"Minutes": int(m.TTL.Minutes()),
	})
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}

type SMTPMailer struct {
	dialer  *gomail.Dialer
	from    string
	timeout time.Duration
}

func NewSMTPMailer(c config.SMTP) *SMTPMailer {
	return &SMTPMailer{
		dialer:  gomail.NewDialer(c.Host, c.Port, c.User, c.Password),
		from:    c.From,
		timeout: c.Timeout,
	}
}

// SendVerification gives up after the configured timeout. gomail can't be
// cancelled, so a stuck dial finishes in the background.
func (s *SMTPMailer) SendVerification(ctx context.Context, m VerificationMail) error {
	if m.To == s.from {
		return fmt.Errorf("refusing to send mail to the sender address %s", m.To)
	}

	body, err := renderVerification(m)
	if err != nil {
		return fmt.Errorf("failed to render verification mail, %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", "Your verification code")
	msg.SetBody("text/html", body)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("smtp send aborted, %w", ctx.Err())
	}
}

// LogMailer is used when no SMTP server is configured. The code only ends up
// in the debug log.
type LogMailer struct{}

func (LogMailer) SendVerification(_ context.Context, m VerificationMail) error {
	zap.L().Debug("SMTP disabled, verification mail not sent",
		zap.String("to", m.To),
		zap.String("code", m.Code),
	)

	return nil
}

func NewMailer(c config.SMTP) Mailer {
	if !c.Enabled() {
		return LogMailer{}
	}

	return NewSMTPMailer(c)
}
