package notify

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"html/template"
	"net/mail"
	"strings"

	gomail "github.com/go-mail/mail/v2"

	"github.com/netresearch/watchdogd/core"
)

// SMTPConfig is the JSON shape stored in Channel.Configuration for
// provider_type=EmailSmtp.
type SMTPConfig struct {
	Host                  string   `json:"host"`
	Port                  int      `json:"port"`
	Username              string   `json:"username,omitempty"`
	Password              string   `json:"password,omitempty"`
	FromAddress           string   `json:"from_address"`
	ToAddresses           []string `json:"to_addresses"`
	IgnoreTLSVerification bool     `json:"ignore_tls_verification"`
}

// SMTPPlugin delivers alerts by connecting to an SMTP relay.
type SMTPPlugin struct{}

var smtpBodyTemplate = template.Must(template.New("watchdog-smtp-body").Parse(
	`<p>{{.Body}}</p>`,
))

// NewSMTPPlugin constructs the EmailSmtp provider plugin.
func NewSMTPPlugin() *SMTPPlugin { return &SMTPPlugin{} }

func (p *SMTPPlugin) ProviderType() core.ProviderType { return core.ProviderEmailSmtp }

func (p *SMTPPlugin) ValidateConfig(configJSON []byte) error {
	var cfg SMTPConfig
	if err := json.Unmarshal(configJSON, &cfg); err != nil {
		return core.NewBadRequest("smtp config: invalid json: %v", err)
	}

	if len(cfg.Host) < 4 {
		return core.NewBadRequest("smtp config: host must be at least 4 characters")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return core.NewBadRequest("smtp config: port must be a valid u16")
	}
	if len(cfg.ToAddresses) == 0 {
		return core.NewBadRequest("smtp config: to_addresses must not be empty")
	}
	for _, addr := range cfg.ToAddresses {
		if _, err := mail.ParseAddress(addr); err != nil {
			return core.NewBadRequest("smtp config: invalid to_address %q: %v", addr, err)
		}
	}
	if _, err := mail.ParseAddress(cfg.FromAddress); err != nil {
		return core.NewBadRequest("smtp config: invalid from_address: %v", err)
	}

	return nil
}

func (p *SMTPPlugin) Send(ctx context.Context, configJSON []byte, in AlertInput) error {
	var cfg SMTPConfig
	if err := json.Unmarshal(configJSON, &cfg); err != nil {
		return fmt.Errorf("smtp: unmarshal config: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", cfg.FromAddress)
	msg.SetHeader("To", cfg.ToAddresses...)
	msg.SetHeader("Subject", in.Subject())

	var buf strings.Builder
	if err := smtpBodyTemplate.Execute(&buf, struct{ Body string }{Body: in.Body()}); err != nil {
		return fmt.Errorf("smtp: render body: %w", err)
	}
	msg.SetBody("text/html", buf.String())

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.IgnoreTLSVerification {
		// #nosec G402 -- explicit per-channel opt-in for legacy relays.
		dialer.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp: dial and send: %w", err)
	}
	return nil
}
