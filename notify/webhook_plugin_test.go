package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netresearch/watchdogd/core"
)

func TestWebhookPlugin_ValidateConfig(t *testing.T) {
	t.Parallel()
	p := NewWebhookPlugin(core.ProviderGchatWebhook)

	bad, _ := json.Marshal(WebhookConfig{WebhookURL: "ftp://x"})
	assert.Error(t, p.ValidateConfig(bad))

	tooShort, _ := json.Marshal(WebhookConfig{WebhookURL: "http://a"})
	assert.Error(t, p.ValidateConfig(tooShort))

	ssrf, _ := json.Marshal(WebhookConfig{WebhookURL: "http://127.0.0.1:9999/hook"})
	assert.Error(t, p.ValidateConfig(ssrf))
}

func TestWebhookPlugin_Send(t *testing.T) {
	SetValidateWebhookURLForTest(func(string) error { return nil })
	defer SetValidateWebhookURLForTest(ValidateWebhookURL)

	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewWebhookPlugin(core.ProviderSlackWebhook)
	cfg, err := json.Marshal(WebhookConfig{WebhookURL: srv.URL})
	require.NoError(t, err)

	err = p.Send(context.Background(), cfg, AlertInput{
		App: "acme", Job: "nightly", Stage: "ingest", Alert: core.AlertFailed, Message: "boom",
	})
	require.NoError(t, err)
	assert.Contains(t, gotBody["text"], "Job Failed Alert")
}

func TestWebhookPlugin_SendNonOKStatus(t *testing.T) {
	SetValidateWebhookURLForTest(func(string) error { return nil })
	defer SetValidateWebhookURLForTest(ValidateWebhookURL)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewWebhookPlugin(core.ProviderGchatWebhook)
	cfg, _ := json.Marshal(WebhookConfig{WebhookURL: srv.URL})

	err := p.Send(context.Background(), cfg, AlertInput{App: "a", Job: "b", Alert: core.AlertTimeout})
	assert.Error(t, err)
}
