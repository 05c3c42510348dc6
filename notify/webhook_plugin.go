package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/netresearch/watchdogd/core"
)

// WebhookConfig is the JSON shape stored in Channel.Configuration for
// provider_type in {GchatWebhook, SlackWebhook}: both deliver an
// identical `{"text": ...}` payload, differing only by destination URL.
type WebhookConfig struct {
	WebhookURL string `json:"webhook_url"`
}

const webhookSendTimeout = 10 * time.Second

// validateWebhookURL is overridable in tests so httptest servers bound to
// 127.0.0.1 don't trip SSRF protection.
var validateWebhookURL = ValidateWebhookURL

// SetValidateWebhookURLForTest overrides the SSRF validator; tests must
// restore it with SetValidateWebhookURLForTest(ValidateWebhookURL).
func SetValidateWebhookURLForTest(f func(string) error) {
	validateWebhookURL = f
}

// WebhookPlugin POSTs a JSON `{"text": <body>}` payload to a channel's
// webhook URL. It serves both GchatWebhook and SlackWebhook provider
// types, which render and deliver identically.
type WebhookPlugin struct {
	providerType core.ProviderType
	client       *http.Client
}

// NewWebhookPlugin constructs a webhook provider plugin for the given
// provider type, using a DNS-rebinding-safe transport.
func NewWebhookPlugin(providerType core.ProviderType) *WebhookPlugin {
	return &WebhookPlugin{
		providerType: providerType,
		client: &http.Client{
			Timeout:   webhookSendTimeout,
			Transport: NewSafeTransport(),
		},
	}
}

func (p *WebhookPlugin) ProviderType() core.ProviderType { return p.providerType }

func (p *WebhookPlugin) ValidateConfig(configJSON []byte) error {
	var cfg WebhookConfig
	if err := json.Unmarshal(configJSON, &cfg); err != nil {
		return core.NewBadRequest("webhook config: invalid json: %v", err)
	}

	if len(cfg.WebhookURL) < 8 {
		return core.NewBadRequest("webhook config: webhook_url must be at least 8 characters")
	}
	if !strings.HasPrefix(cfg.WebhookURL, "http://") && !strings.HasPrefix(cfg.WebhookURL, "https://") {
		return core.NewBadRequest("webhook config: webhook_url must begin with http:// or https://")
	}
	if strings.ContainsAny(cfg.WebhookURL, " \t\n") {
		return core.NewBadRequest("webhook config: webhook_url must not contain whitespace")
	}
	if err := ValidateWebhookURL(cfg.WebhookURL); err != nil {
		return core.NewBadRequest("webhook config: %v", err)
	}

	return nil
}

func (p *WebhookPlugin) Send(ctx context.Context, configJSON []byte, in AlertInput) error {
	var cfg WebhookConfig
	if err := json.Unmarshal(configJSON, &cfg); err != nil {
		return fmt.Errorf("webhook: unmarshal config: %w", err)
	}
	if err := validateWebhookURL(cfg.WebhookURL); err != nil {
		return fmt.Errorf("webhook: url validation: %w", err)
	}

	payload, err := json.Marshal(map[string]string{"text": in.Subject() + "\n" + in.Body()})
	if err != nil {
		return fmt.Errorf("webhook: marshal payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, webhookSendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: http request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: http %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
