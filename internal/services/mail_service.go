package services

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/smtp"
	"strings"
	"sync"
	"yatube/internal/config"
	"yatube/internal/logging"
)

// sendFunc 与 smtp.SendMail 同签名, 测试中替换
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// MailService 异步发送通知邮件; SMTP 未配置时所有发送都被忽略
type MailService struct {
	cfg       config.MailConfig
	siteName  string
	templates fs.FS
	send      sendFunc
	wg        sync.WaitGroup
}

// NewMailService templates 中需要包含 email/*.html
func NewMailService(cfg config.MailConfig, siteName string, templates fs.FS) *MailService {
	s := &MailService{cfg: cfg, siteName: siteName, templates: templates, send: smtp.SendMail}
	if !s.Enabled() {
		logging.L().Warn().Msg("MailService disabled: missing SMTP settings")
	}
	return s
}

// Enabled SMTP 配置齐全才发送
func (s *MailService) Enabled() bool {
	c := s.cfg
	return c.Host != "" && c.Port != "" && c.From != ""
}

func (s *MailService) sendAsync(to []string, subject string, body string) {
	if !s.Enabled() {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		var auth smtp.Auth
		if s.cfg.Username != "" {
			auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		}
		addr := s.cfg.Host + ":" + s.cfg.Port

		msg := []byte(fmt.Sprintf("To: %s\r\n"+
			"From: %s <%s>\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
			"\r\n%s", strings.Join(to, ","), s.siteName, s.cfg.From, subject, body))

		if err := s.send(addr, auth, s.cfg.From, to, msg); err != nil {
			logging.L().Error().Err(err).Strs("to", to).Msg("failed to send email")
			return
		}
		logging.L().Info().Strs("to", to).Str("subject", subject).Msg("email sent")
	}()
}

// Wait 等待正在发送的邮件, 关闭服务前调用
func (s *MailService) Wait() {
	s.wg.Wait()
}

func (s *MailService) parseTemplate(templateName string, data any) (string, error) {
	t, err := template.ParseFS(s.templates, "email/"+templateName)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}
	return buf.String(), nil
}

// SendWelcomeEmail 注册成功后的欢迎邮件
func (s *MailService) SendWelcomeEmail(email, username, loginURL string) {
	if !s.Enabled() || email == "" {
		return
	}
	body, err := s.parseTemplate("welcome.html", map[string]string{
		"Username": username,
		"SiteName": s.siteName,
		"LoginURL": loginURL,
	})
	if err != nil {
		logging.L().Error().Err(err).Msg("render welcome email")
		return
	}
	s.sendAsync([]string{email}, "Welcome to "+s.siteName, body)
}

// SendCommentNotification 通知帖子作者有新评论
func (s *MailService) SendCommentNotification(email, commenter, excerpt, comment, postLink string) {
	if !s.Enabled() || email == "" {
		return
	}
	body, err := s.parseTemplate("comment.html", map[string]string{
		"Commenter": commenter,
		"Excerpt":   excerpt,
		"Comment":   comment,
		"PostLink":  postLink,
		"SiteName":  s.siteName,
	})
	if err != nil {
		logging.L().Error().Err(err).Msg("render comment email")
		return
	}
	s.sendAsync([]string{email}, commenter+" commented on your post", body)
}
