// Package alert delivers operational pages. The engine itself never alerts;
// the embedding circuit breaker pages through an Alerter when the provider
// trips so degraded semantic scoring is noticed, not discovered.
package alert

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/latticesearch/lattice/pkg/config"
)

// subjectPrefix marks every page so inbox filters can route them.
const subjectPrefix = "[lattice]"

// ErrNoRecipients is returned when alerting is enabled with an empty To list.
var ErrNoRecipients = errors.New("alerting enabled but no recipients configured")

// Alerter sends one page. Implementations must be safe for concurrent use;
// the circuit breaker may fire from any request goroutine.
type Alerter interface {
	Alert(subject, message string) error
}

// sendFunc matches smtp.SendMail so delivery can be stubbed in tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailAlerter pages over SMTP.
type EmailAlerter struct {
	cfg  config.AlertConfig
	send sendFunc
}

// NewEmailAlerter creates an alerter from the application alert config.
func NewEmailAlerter(cfg config.AlertConfig) *EmailAlerter {
	return &EmailAlerter{cfg: cfg, send: smtp.SendMail}
}

// Alert sends one email. Disabled config is a silent no-op so callers never
// need to branch on whether alerting is wired.
func (a *EmailAlerter) Alert(subject, message string) error {
	if !a.cfg.Enabled {
		return nil
	}
	if len(a.cfg.To) == 0 {
		return ErrNoRecipients
	}

	auth := smtp.PlainAuth("", a.cfg.Username, a.cfg.Password, a.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", a.cfg.SMTPHost, a.cfg.SMTPPort)

	if err := a.send(addr, auth, a.cfg.From, a.cfg.To, buildMessage(a.cfg, subject, message)); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}
	return nil
}

func buildMessage(cfg config.AlertConfig, subject, message string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(cfg.To, ","))
	fmt.Fprintf(&b, "Subject: %s %s\r\n", subjectPrefix, subject)
	b.WriteString("\r\n")
	b.WriteString(message)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// NoOpAlerter discards every page. Used when alerting is disabled.
type NoOpAlerter struct{}

// Alert implements Alerter.
func (n *NoOpAlerter) Alert(subject, message string) error { return nil }
