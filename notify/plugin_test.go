package notify

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netresearch/watchdogd/core"
)

func TestAlertSubjects(t *testing.T) {
	in := AlertInput{App: "acme", Job: "nightly", Stage: "ingest"}

	in.Alert = core.AlertError
	assert.Equal(t, "[watchdog]: [acme] [nightly] [ingest]: Runtime Error Occurred", in.Subject())

	in.Alert = core.AlertTimeout
	assert.Equal(t, "[acme]: [nightly] Dag Timeout Alert from Watchdog", in.Subject())

	in.Alert = core.AlertFailed
	assert.Equal(t, "[acme]: [nightly] Job Failed Alert from Watchdog", in.Subject())
}

func TestAlertBodyRunIDPlaceholder(t *testing.T) {
	in := AlertInput{App: "acme", Job: "nightly", Stage: "ingest", Alert: core.AlertTimeout}
	assert.Contains(t, in.Body(), "run_id=NA")

	id := uuid.New()
	in.RunID = &id
	assert.Contains(t, in.Body(), "run_id="+id.String())
}

func TestAlertBodyCarriesMessage(t *testing.T) {
	in := AlertInput{App: "acme", Job: "nightly", Stage: "ingest", Message: "exit code 3", Alert: core.AlertFailed}
	assert.Contains(t, in.Body(), "message=exit code 3")

	in.Alert = core.AlertError
	assert.Contains(t, in.Body(), "message=exit code 3")

	// Timeout bodies carry no message field at all.
	in.Alert = core.AlertTimeout
	assert.NotContains(t, in.Body(), "message=")
}

func TestRegistryKeyedByProviderType(t *testing.T) {
	webhook := newFakePlugin(core.ProviderGchatWebhook)
	smtp := newFakePlugin(core.ProviderEmailSmtp)
	r := NewRegistry(webhook, smtp)

	got, ok := r.Lookup(core.ProviderGchatWebhook)
	require.True(t, ok)
	assert.Same(t, webhook, got.(*fakePlugin))

	got, ok = r.Lookup(core.ProviderEmailSmtp)
	require.True(t, ok)
	assert.Same(t, smtp, got.(*fakePlugin))

	_, ok = r.Lookup(core.ProviderSlackWebhook)
	assert.False(t, ok)
}

func TestRegistryValidateUnknownProvider(t *testing.T) {
	r := NewRegistry()
	err := r.Validate(core.ProviderType("Carrier"), []byte(`{}`))
	require.Error(t, err)
	assert.Equal(t, core.KindBadRequest, core.KindOf(err))
}
