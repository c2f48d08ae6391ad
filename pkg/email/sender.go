package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/repairdesk-backend/pkg/config"
	"github.com/angelmondragon/repairdesk-backend/pkg/logger"
	"gopkg.in/gomail.v2"
)

// ErrDeliveryFailed marks any failure to hand a message to the SMTP server.
var ErrDeliveryFailed = errors.New("email delivery failed")

// Message is a single outgoing email. Body is markdown; the plain-text part
// carries it verbatim and the HTML part is rendered from it.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers one message. Implementations must honour ctx cancellation.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender delivers mail through gomail.
type SMTPSender struct {
	cfg      config.SMTPConfig
	dialer   dialer
	renderer *Renderer
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.SSL {
		d.SSL = true
	}
	return &SMTPSender{
		cfg:      cfg,
		dialer:   d,
		renderer: NewRenderer(),
	}
}

// Send builds a multipart message and dials the server. If ctx expires first
// the call returns and the dial finishes in the background.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	htmlBody, err := s.renderer.HTML(msg.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.FromAddress, s.cfg.FromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	m.AddAlternative("text/html", htmlBody)

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, ctx.Err())
	}
}

// LogSender only logs outgoing mail. Used when email delivery is disabled.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"to":      msg.To,
			"subject": msg.Subject,
		})
		s.logg.Info(ctx, "email.skipped")
	}
	return nil
}

// New picks the SMTP sender unless delivery is disabled by feature flag.
func New(cfg *config.Config, logg *logger.Logger) Sender {
	if cfg == nil || cfg.FeatureFlags.DisableEmail {
		return NewLogSender(logg)
	}
	return NewSMTPSender(cfg.SMTP)
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("%w: recipient is required", ErrDeliveryFailed)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrDeliveryFailed)
	}
	return nil
}
