package services

import (
	"net/smtp"
	"sync"
	"testing"
	"testing/fstest"
	"yatube/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mailTemplates = fstest.MapFS{
	"email/welcome.html": {Data: []byte(`Hello {{.Username}}, welcome to {{.SiteName}}. Log in at {{.LoginURL}}`)},
	"email/comment.html": {Data: []byte(`{{.Commenter}} wrote: {{.Comment}} on {{.PostLink}}`)},
}

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestMail(t *testing.T, cfg config.MailConfig) (*MailService, *[]sentMail) {
	t.Helper()
	var mu sync.Mutex
	sent := &[]sentMail{}
	s := NewMailService(cfg, "Yatube", mailTemplates)
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		mu.Lock()
		defer mu.Unlock()
		*sent = append(*sent, sentMail{addr: addr, from: from, to: to, msg: string(msg)})
		return nil
	}
	return s, sent
}

func TestMailServiceDisabledWithoutSMTP(t *testing.T) {
	s, sent := newTestMail(t, config.MailConfig{})
	assert.False(t, s.Enabled())

	s.SendWelcomeEmail("leo@example.com", "leo", "http://localhost/auth/login/")
	s.Wait()
	assert.Empty(t, *sent)
}

func TestMailServiceSendsWelcome(t *testing.T) {
	s, sent := newTestMail(t, config.MailConfig{Host: "smtp.example.com", Port: "25", From: "noreply@example.com"})
	require.True(t, s.Enabled())

	s.SendWelcomeEmail("leo@example.com", "leo", "http://localhost/auth/login/")
	s.Wait()

	require.Len(t, *sent, 1)
	m := (*sent)[0]
	assert.Equal(t, "smtp.example.com:25", m.addr)
	assert.Equal(t, []string{"leo@example.com"}, m.to)
	assert.Contains(t, m.msg, "Subject: Welcome to Yatube")
	assert.Contains(t, m.msg, "Hello leo, welcome to Yatube")
	assert.Contains(t, m.msg, "\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\nHello leo")
	assert.NotContains(t, m.msg, ";\n")
}

func TestMailServiceEscapesCommentBody(t *testing.T) {
	s, sent := newTestMail(t, config.MailConfig{Host: "smtp.example.com", Port: "25", From: "noreply@example.com"})

	s.SendCommentNotification("leo@example.com", "mia", "my post", "<b>hi</b>", "http://localhost/leo/1/")
	s.Wait()

	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0].msg, "&lt;b&gt;hi&lt;/b&gt;")
}
