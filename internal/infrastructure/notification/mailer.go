package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Message is one outbound notification
type Message struct {
	To      string
	Subject string
	Body    string
}

// Transport delivers notification messages. A nil Transport is a valid
// degraded state: dispatch records outcomes as LOGGED instead of sending.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the SMTP transport settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Configured reports whether enough settings are present to build a transport
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

// Addr returns the host:port dial address
func (c SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SMTPTransport sends mail through a plain SMTP relay
type SMTPTransport struct {
	config SMTPConfig
	logger *zap.Logger

	// sendMail is swappable for tests
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPTransport creates an SMTP transport from the given settings
func NewSMTPTransport(config SMTPConfig, logger *zap.Logger) *SMTPTransport {
	return &SMTPTransport{
		config:   config,
		logger:   logger,
		sendMail: smtp.SendMail,
	}
}

// NewTransportFromConfig returns an SMTP transport, or nil when the settings
// are incomplete. Callers branch on the nil capability rather than probing
// transport availability at send time.
func NewTransportFromConfig(config SMTPConfig, logger *zap.Logger) Transport {
	if !config.Configured() {
		logger.Info("SMTP not configured, reminders will be logged only")
		return nil
	}
	return NewSMTPTransport(config, logger)
}

// Send delivers one message through the SMTP relay
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from := t.config.From
	if from == "" {
		from = t.config.Username
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	auth := smtp.PlainAuth("", t.config.Username, t.config.Password, t.config.Host)
	if err := t.sendMail(t.config.Addr(), auth, from, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", msg.To, err)
	}

	t.logger.Debug("Email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
