package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/netresearch/watchdogd/core"
	"github.com/netresearch/watchdogd/store"
)

// Dispatcher resolves a comma-separated channel-ID list to provider
// configs and fans an alert out to each concurrently, isolating failures
// per channel.
type Dispatcher struct {
	channels store.ChannelStore
	registry *Registry
	logger   core.Logger
}

// NewDispatcher builds a Dispatcher over the given channel store and
// plugin registry.
func NewDispatcher(channels store.ChannelStore, registry *Registry, logger core.Logger) *Dispatcher {
	return &Dispatcher{channels: channels, registry: registry, logger: logger}
}

// Dispatch sends in to every channel named in channelIDsCSV. Every channel
// is attempted regardless of a sibling's outcome; Dispatch still
// reports back whether any channel failed, so callers such as the
// ingestor can drive an error-channel fallback, but that reporting never
// short-circuits the fan-out itself.
func (d *Dispatcher) Dispatch(ctx context.Context, channelIDsCSV string, in AlertInput) error {
	ids := splitCSV(channelIDsCSV)
	if len(ids) == 0 {
		return nil
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
	)
	for _, id := range ids {
		wg.Add(1)
		go func(channelID string) {
			defer wg.Done()
			if err := d.sendOne(ctx, channelID, in); err != nil {
				mu.Lock()
				failed = append(failed, channelID)
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	if len(failed) > 0 {
		return fmt.Errorf("dispatch failed for channel(s): %s", strings.Join(failed, ", "))
	}
	return nil
}

func (d *Dispatcher) sendOne(ctx context.Context, channelID string, in AlertInput) error {
	ch, err := d.channels.GetByID(ctx, channelID)
	if err != nil {
		d.logger.Errorf("notify: load channel %q: %v", channelID, err)
		return err
	}
	if ch == nil {
		d.logger.Errorf("notify: channel %q not found", channelID)
		return fmt.Errorf("channel %q not found", channelID)
	}

	plugin, ok := d.registry.Lookup(ch.ProviderType)
	if !ok {
		d.logger.Errorf("notify: channel %q: no plugin registered for provider %q", channelID, ch.ProviderType)
		return fmt.Errorf("no plugin registered for provider %q", ch.ProviderType)
	}

	if err := plugin.Send(ctx, ch.Configuration, in); err != nil {
		d.logger.Errorf("notify: channel %q (%s): send failed: %v", channelID, ch.ProviderType, err)
		return err
	}
	return nil
}

// Validate delegates config validation to the plugin registered for kind,
// used by the REST façade before a Channel is persisted.
func (d *Dispatcher) Validate(kind core.ProviderType, configJSON []byte) error {
	return d.registry.Validate(kind, configJSON)
}

// DispatcherAdapter adapts a *Dispatcher to core.Dispatcher, translating
// core.DispatchInput to notify.AlertInput. core cannot depend on notify
// directly (notify imports core), so the ingestor and scanner depend on
// the narrow core.Dispatcher interface and callers wire this adapter in.
type DispatcherAdapter struct {
	*Dispatcher
}

func (a DispatcherAdapter) Dispatch(ctx context.Context, channelIDsCSV string, in core.DispatchInput) error {
	return a.Dispatcher.Dispatch(ctx, channelIDsCSV, AlertInput{
		App:     in.App,
		Job:     in.Job,
		RunID:   in.RunID,
		Stage:   in.Stage,
		Message: in.Message,
		Alert:   in.Alert,
	})
}

func splitCSV(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
