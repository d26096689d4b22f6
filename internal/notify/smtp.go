package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/impulsa-ai/brenda/pkg/logging"
)

// SMTPSender delivers mail over SMTP with STARTTLS. It exists for
// deployments that route advisor mail through their own relay instead of a
// hosted provider.
type SMTPSender struct {
	cfg    SMTPConfig
	logger *logging.Logger
	// dial is swappable for tests.
	dial func(ctx context.Context, addr string) (*smtp.Client, error)
}

// SMTPConfig holds relay connection settings.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// NewSMTPSender creates an SMTP email sender, or nil when no host is
// configured.
func NewSMTPSender(cfg SMTPConfig, logger *logging.Logger) *SMTPSender {
	if cfg.Host == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.FromName == "" {
		cfg.FromName = "Brenda"
	}
	sender := &SMTPSender{cfg: cfg, logger: logger}
	sender.dial = func(ctx context.Context, addr string) (*smtp.Client, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		if deadline, ok := ctx.Deadline(); ok {
			_ = conn.SetDeadline(deadline)
		}
		return smtp.NewClient(conn, cfg.Host)
	}
	return sender
}

// Send delivers one message through the relay. The context deadline bounds
// the whole exchange via the connection deadline.
func (s *SMTPSender) Send(ctx context.Context, msg EmailMessage) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))

	client, err := s.dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("notify: smtp dial %s: %w", addr, err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return fmt.Errorf("notify: smtp starttls: %w", err)
		}
	}
	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("notify: smtp auth: %w", err)
		}
	}

	if err := client.Mail(s.cfg.FromEmail); err != nil {
		return fmt.Errorf("notify: smtp mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("notify: smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("notify: smtp data: %w", err)
	}
	if _, err := w.Write([]byte(s.render(msg))); err != nil {
		w.Close()
		return fmt.Errorf("notify: smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("notify: smtp close body: %w", err)
	}

	if err := client.Quit(); err != nil {
		s.logger.Warn("smtp quit failed after delivery", "error", err.Error())
	}
	s.logger.Info("email sent via smtp", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (s *SMTPSender) render(msg EmailMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", s.cfg.FromName, s.cfg.FromEmail)
	fmt.Fprintf(&b, "To: %s <%s>\r\n", msg.ToName, msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	if msg.HTML != "" {
		b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(msg.HTML)
	} else {
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(msg.Body)
	}
	b.WriteString("\r\n")
	return b.String()
}
