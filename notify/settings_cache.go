package notify

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/netresearch/watchdogd/core"
	"github.com/netresearch/watchdogd/store"
)

const settingsListenBackoff = 5 * time.Second

// SettingsCache is a process-wide readable snapshot of Settings, refreshed
// by a background listener on the store's change-notification channel.
// Readers get a full struct copy from an atomic pointer swap, so a reader
// never observes a partially-updated snapshot: the writer builds the new
// value off to the side and swaps the pointer once.
type SettingsCache struct {
	snapshot atomic.Pointer[core.Settings]
	store    store.SettingsStore
	logger   core.Logger
}

// NewSettingsCache loads the initial snapshot synchronously from store.
func NewSettingsCache(ctx context.Context, st store.SettingsStore, logger core.Logger) (*SettingsCache, error) {
	initial, err := st.Get(ctx)
	if err != nil {
		return nil, err
	}

	c := &SettingsCache{store: st, logger: logger}
	c.snapshot.Store(&initial)
	return c, nil
}

// Get returns a copy of the current settings snapshot. No lock is held
// after it returns, and a later swap does not change the returned value.
func (c *SettingsCache) Get() core.Settings {
	return *c.snapshot.Load()
}

// Run subscribes to the store's settings-update notification channel and
// keeps the snapshot current until ctx is cancelled. On any transport or
// parse error it logs and reconnects after a fixed backoff; it is
// meant to run as its own long-lived goroutine for the life of the process.
func (c *SettingsCache) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		err := c.store.Listen(ctx, func(s core.Settings) {
			c.snapshot.Store(&s)
		})
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.logger.Errorf("settings cache: listen error, reconnecting in %v: %v", settingsListenBackoff, err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(settingsListenBackoff):
		}
	}
}
