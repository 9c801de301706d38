package notifications

import (
	"context"
	"fmt"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/storeguard/internal/domain/providers"
	"github.com/zatekoja/storeguard/pkg/config"
	"github.com/zatekoja/storeguard/pkg/retry"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailSender delivers feedback replies over SMTP
type EmailSender struct {
	addr     string
	sender   string
	auth     smtp.Auth
	retry    retry.Config
	sendMail sendMailFunc
}

var _ providers.ReplySender = (*EmailSender)(nil)

// NewEmailSender creates an SMTP reply sender. Auth is only attempted when
// a user is configured.
func NewEmailSender(cfg *config.SMTPConfig) (*EmailSender, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("SMTP_HOST must be set")
	}
	if _, err := mail.ParseAddress(cfg.Sender); err != nil {
		return nil, fmt.Errorf("invalid SMTP sender %q: %w", cfg.Sender, err)
	}

	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}

	return &EmailSender{
		addr:     cfg.Addr(),
		sender:   cfg.Sender,
		auth:     auth,
		retry:    retry.QuickConfig(),
		sendMail: smtp.SendMail,
	}, nil
}

// Send delivers msg, retrying transient failures
func (s *EmailSender) Send(ctx context.Context, msg providers.ReplyMessage) error {
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	body := buildMessage(s.sender, to.Address, msg.Subject, msg.Body, time.Now())

	return retry.DoWithLog(ctx, s.retry, "SMTP",
		func() error {
			return s.sendMail(s.addr, s.auth, s.sender, []string{to.Address}, body)
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Str("to", to.Address).Msg("reply delivery failed")
		},
	)
}

// headerSafe strips CR and LF so values cannot inject headers
func headerSafe(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}

func buildMessage(from, to, subject, body string, now time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", headerSafe(from))
	fmt.Fprintf(&b, "To: %s\r\n", headerSafe(to))
	fmt.Fprintf(&b, "Subject: %s\r\n", headerSafe(subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	return []byte(b.String())
}

// LogSender records replies in the log instead of delivering them. It is
// used when no SMTP server is configured.
type LogSender struct{}

// Send logs the reply
func (LogSender) Send(ctx context.Context, msg providers.ReplyMessage) error {
	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Int("body_bytes", len(msg.Body)).Msg("reply not delivered: SMTP not configured")
	return nil
}
