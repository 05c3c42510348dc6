// Package notify resolves channels to provider plugins and fans alerts out
// to them, isolating per-channel failures the way the timeout scanner
// isolates per-config and per-run failures.
package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/netresearch/watchdogd/core"
)

// AlertInput is everything a plugin needs to render and deliver one alert.
type AlertInput struct {
	App     string
	Job     string
	RunID   *uuid.UUID
	Stage   string
	Message string
	Alert   core.AlertType
}

// RunIDOrNA renders RunID the way every plugin template does: the UUID, or
// the literal "NA" when the alert has no associated run.
func (a AlertInput) RunIDOrNA() string {
	if a.RunID == nil {
		return "NA"
	}
	return a.RunID.String()
}

// Subject renders the alert's subject/text line for its alert type.
func (a AlertInput) Subject() string {
	switch a.Alert {
	case core.AlertError:
		return fmt.Sprintf("[watchdog]: [%s] [%s] [%s]: Runtime Error Occurred", a.App, a.Job, a.Stage)
	case core.AlertTimeout:
		return fmt.Sprintf("[%s]: [%s] Dag Timeout Alert from Watchdog", a.App, a.Job)
	case core.AlertFailed:
		return fmt.Sprintf("[%s]: [%s] Job Failed Alert from Watchdog", a.App, a.Job)
	default:
		return fmt.Sprintf("[%s]: [%s] Watchdog Alert", a.App, a.Job)
	}
}

// Body renders the alert body; for Error/Failed it appends the message if
// one was supplied.
func (a AlertInput) Body() string {
	switch a.Alert {
	case core.AlertError:
		return fmt.Sprintf("app=%s job=%s stage=%s run_id=%s message=%s",
			a.App, a.Job, a.Stage, a.RunIDOrNA(), a.Message)
	case core.AlertTimeout:
		return fmt.Sprintf("app=%s job=%s stage=%s run_id=%s", a.App, a.Job, a.Stage, a.RunIDOrNA())
	case core.AlertFailed:
		return fmt.Sprintf("app=%s job=%s stage=%s run_id=%s message=%s",
			a.App, a.Job, a.Stage, a.RunIDOrNA(), a.Message)
	default:
		return a.Subject()
	}
}

// Plugin is the capability set every notification provider implements.
// The registry below dispatches on ProviderType rather than on a
// type switch, so adding a provider never touches the dispatcher.
type Plugin interface {
	ProviderType() core.ProviderType
	ValidateConfig(configJSON []byte) error
	Send(ctx context.Context, configJSON []byte, in AlertInput) error
}

// Registry is an immutable-after-construction map of provider plugins,
// built once at startup and shared by reference across dispatch tasks.
type Registry struct {
	plugins map[core.ProviderType]Plugin
}

// NewRegistry builds a registry from the given plugins, keyed by their own
// ProviderType.
func NewRegistry(plugins ...Plugin) *Registry {
	r := &Registry{plugins: make(map[core.ProviderType]Plugin, len(plugins))}
	for _, p := range plugins {
		r.plugins[p.ProviderType()] = p
	}
	return r
}

// Lookup returns the plugin registered for kind, or ok=false.
func (r *Registry) Lookup(kind core.ProviderType) (Plugin, bool) {
	p, ok := r.plugins[kind]
	return p, ok
}

// Validate delegates to the plugin registered for kind.
func (r *Registry) Validate(kind core.ProviderType, configJSON []byte) error {
	p, ok := r.Lookup(kind)
	if !ok {
		return core.NewBadRequest("unknown provider type %q", kind)
	}
	return p.ValidateConfig(configJSON)
}
