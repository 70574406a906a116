package notify

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"buywise/config"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// RecipientDomain turns bare user ids into addresses. Empty means such
	// recipients are only logged.
	RecipientDomain string
}

func SMTPConfigFrom(cfg *config.Config) SMTPConfig {
	return SMTPConfig{
		Host:            cfg.SMTP.Host,
		Port:            cfg.SMTP.Port,
		Username:        cfg.SMTP.Username,
		Password:        cfg.SMTP.Password,
		From:            cfg.SMTP.From,
		RecipientDomain: cfg.SMTP.RecipientDomain,
	}
}

// SMTPSink sends plain text mail. net/smtp upgrades with STARTTLS when the
// server offers it.
type SMTPSink struct {
	cfg SMTPConfig
	log *zap.SugaredLogger

	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSink(cfg SMTPConfig, log *zap.SugaredLogger) *SMTPSink {
	return &SMTPSink{cfg: cfg, log: log, sendMail: smtp.SendMail}
}

func (s *SMTPSink) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to, ok := s.recipient(m.RecipientID)
	if !ok {
		s.log.Infow("notification_log_only",
			"reason", "recipient is not an address and SMTP_RECIPIENT_DOMAIN is empty",
			"recipient_id", m.RecipientID,
			"event_id", m.EventID.String(),
			"subject", m.Subject,
		)
		return nil
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := s.sendMail(addr, auth, s.from(), []string{to}, s.compose(to, m)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	s.log.Infow("notification_emailed", "to", to, "event_id", m.EventID.String(), "kind", m.Kind)
	return nil
}

func (s *SMTPSink) from() string {
	if s.cfg.From != "" {
		return s.cfg.From
	}
	return s.cfg.Username
}

func (s *SMTPSink) recipient(id string) (string, bool) {
	id = strings.TrimSpace(id)
	if strings.Contains(id, "@") {
		return id, true
	}
	if id == "" || s.cfg.RecipientDomain == "" {
		return "", false
	}
	return id + "@" + strings.TrimPrefix(s.cfg.RecipientDomain, "@"), true
}

func (s *SMTPSink) compose(to string, m Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from())
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(&b, "Message-ID: <%s@buywise>\r\n", m.EventID.String())
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	body := strings.ReplaceAll(m.Body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}
