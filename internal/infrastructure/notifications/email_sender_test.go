package notifications

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/storeguard/internal/domain/providers"
	"github.com/zatekoja/storeguard/pkg/config"
	"github.com/zatekoja/storeguard/pkg/retry"
)

func TestNewEmailSender(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SMTPConfig
		wantErr bool
	}{
		{name: "Valid config", cfg: config.SMTPConfig{Host: "smtp.example.com", Port: 587, Sender: "support@storeguard.local"}},
		{name: "Missing host", cfg: config.SMTPConfig{Sender: "support@storeguard.local"}, wantErr: true},
		{name: "Invalid sender", cfg: config.SMTPConfig{Host: "smtp.example.com", Sender: "not an address"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender, err := NewEmailSender(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "smtp.example.com:587", sender.addr)
			assert.Nil(t, sender.auth)
		})
	}
}

func newTestSender(fn sendMailFunc) *EmailSender {
	return &EmailSender{
		addr:     "smtp.example.com:25",
		sender:   "support@storeguard.local",
		retry:    retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, BackoffFactor: 1},
		sendMail: fn,
	}
}

func TestEmailSender_Send(t *testing.T) {
	var gotTo []string
	var gotMsg string
	sender := newTestSender(func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		assert.Equal(t, "smtp.example.com:25", addr)
		assert.Equal(t, "support@storeguard.local", from)
		gotTo = to
		gotMsg = string(msg)
		return nil
	})

	err := sender.Send(context.Background(), providers.ReplyMessage{
		To:      "John Smith <john@downtown.com>",
		Subject: "Re: Camera offline\r\nBcc: evil@example.com",
		Body:    "We restarted the NVR.\nPlease check again.",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"john@downtown.com"}, gotTo)
	assert.Contains(t, gotMsg, "To: john@downtown.com\r\n")
	assert.Contains(t, gotMsg, "Subject: Re: Camera offline  Bcc: evil@example.com\r\n")
	assert.NotContains(t, gotMsg, "\r\nBcc:")
	assert.True(t, strings.HasSuffix(gotMsg, "We restarted the NVR.\r\nPlease check again."))
}

func TestEmailSender_SendRetries(t *testing.T) {
	calls := 0
	sender := newTestSender(func(string, smtp.Auth, string, []string, []byte) error {
		calls++
		if calls < 3 {
			return errors.New("421 try again later")
		}
		return nil
	})

	require.NoError(t, sender.Send(context.Background(), providers.ReplyMessage{To: "a@b.com", Body: "hi"}))
	assert.Equal(t, 3, calls)
}

func TestEmailSender_SendGivesUp(t *testing.T) {
	sender := newTestSender(func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("550 mailbox unavailable")
	})

	err := sender.Send(context.Background(), providers.ReplyMessage{To: "a@b.com", Body: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "550 mailbox unavailable")
}

func TestEmailSender_RejectsBadRecipient(t *testing.T) {
	sender := newTestSender(func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("should not send")
		return nil
	})

	assert.Error(t, sender.Send(context.Background(), providers.ReplyMessage{To: "nobody"}))
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, LogSender{}.Send(context.Background(), providers.ReplyMessage{To: "a@b.com"}))
}
