package mail

import (
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PaymentBot/internal/pkg/env"
)

func TestLoadSMTPConfig(t *testing.T) {
	env.Env = map[string]string{
		"SMTP_HOST":     "smtp.example.com",
		"SMTP_USERNAME": "bot",
		"SMTP_PASSWORD": "secret",
	}
	t.Cleanup(func() { env.Env = nil })

	cfg := LoadSMTPConfig()
	assert.Equal(t, "smtp.example.com", cfg.Host)
	assert.Equal(t, "587", cfg.Port)
	assert.Equal(t, "no-reply@localhost", cfg.Sender)
}

func TestSMTPMailerSendMail(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{
		Host:     "smtp.example.com",
		Port:     "2525",
		Username: "bot",
		Password: "secret",
		Sender:   "bot@example.com",
		ReplyTo:  "support@example.com",
	})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth
	m.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	}

	require.NoError(t, m.SendMail("alice@example.com", "Renew", "<b>hi</b>"))
	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "bot@example.com", gotFrom)
	assert.Equal(t, []string{"alice@example.com"}, gotTo)

	msg := string(gotMsg)
	assert.Contains(t, msg, "Subject: Renew\r\n")
	assert.Contains(t, msg, "Reply-To: support@example.com\r\n")
	assert.Contains(t, msg, "Content-Type: text/html; charset=UTF-8\r\n\r\n<b>hi</b>")
}

func TestSMTPMailerSendMailError(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: "25", Sender: "bot@example.com"})
	m.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := m.SendMail("alice@example.com", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alice@example.com")
}
