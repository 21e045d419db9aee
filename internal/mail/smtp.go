package mail

import (
	"context"
	"log/slog"

	gomail "github.com/wneessen/go-mail"
)

// SMTPConfig carries transport settings for the SMTP sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers messages over SMTP.
type SMTPSender struct {
	cfg    SMTPConfig
	logger *slog.Logger
}

// NewSMTPSender constructs an SMTP-backed Sender.
func NewSMTPSender(cfg SMTPConfig, logger *slog.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, logger: logger}
}

// Send delivers msg, returning false on any failure.
func (s *SMTPSender) Send(ctx context.Context, msg Message) bool {
	m := gomail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		s.logger.Warn("mail: invalid from address", slog.String("from", s.cfg.From), slog.Any("error", err))
		return false
	}
	if err := m.To(msg.To); err != nil {
		s.logger.Warn("mail: invalid recipient", slog.String("to", msg.To), slog.Any("error", err))
		return false
	}
	if msg.CC != "" {
		if err := m.Cc(msg.CC); err != nil {
			s.logger.Warn("mail: invalid cc", slog.String("cc", msg.CC), slog.Any("error", err))
			return false
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	if msg.Text != "" {
		m.AddAlternativeString(gomail.TypeTextPlain, msg.Text)
	}

	opts := []gomail.Option{gomail.WithPort(s.cfg.Port), gomail.WithTLSPolicy(gomail.TLSOpportunistic)}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		s.logger.Warn("mail: client init failed", slog.Any("error", err))
		return false
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		s.logger.Warn("mail: send failed",
			slog.String("to", msg.To),
			slog.String("subject", msg.Subject),
			slog.Any("error", err),
		)
		return false
	}
	return true
}
