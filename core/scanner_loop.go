package core

import (
	"context"
	"sync"
	"time"
)

// ScannerLoop drives the timeout scanner on a fixed delay: wait
// initial_delay_seconds, then call ScanOnce repeatedly every
// fixed_delay_seconds until stopped or until a scan returns an error,
// which is fatal to the loop. It uses the Clock abstraction so tests can
// drive ticks deterministically with FakeClock.
type ScannerLoop struct {
	scan         func(ctx context.Context) error
	clock        Clock
	logger       Logger
	initialDelay time.Duration
	fixedDelay   time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewScannerLoop builds a ScannerLoop that calls scan on each tick.
func NewScannerLoop(scan func(ctx context.Context) error, clock Clock, logger Logger, initialDelay, fixedDelay time.Duration) *ScannerLoop {
	if clock == nil {
		clock = GetDefaultClock()
	}
	return &ScannerLoop{
		scan:         scan,
		clock:        clock,
		logger:       logger,
		initialDelay: initialDelay,
		fixedDelay:   fixedDelay,
	}
}

// Start runs the loop in a background goroutine. It is a no-op if the loop
// is already running.
func (l *ScannerLoop) Start(ctx context.Context) {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.stopCh = make(chan struct{})
	l.doneCh = make(chan struct{})
	l.mu.Unlock()

	go l.run(ctx)
}

func (l *ScannerLoop) run(ctx context.Context) {
	defer close(l.doneCh)

	select {
	case <-l.clock.After(l.initialDelay):
	case <-l.stopCh:
		return
	case <-ctx.Done():
		return
	}

	ticker := l.clock.NewTicker(l.fixedDelay)
	defer ticker.Stop()

	if !l.tick(ctx) {
		return
	}

	for {
		select {
		case <-ticker.C():
			if !l.tick(ctx) {
				return
			}
		case <-l.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// tick runs one scan. A scan error is fatal to the loop: it is logged and
// tick reports false, ending run() so the caller's restart policy takes
// over. Recoverable per-item errors are already absorbed inside ScanOnce;
// anything that escapes it means the scanner cannot make progress at all.
func (l *ScannerLoop) tick(ctx context.Context) bool {
	if err := l.scan(ctx); err != nil {
		l.logger.Criticalf("scanner loop: scan tick failed, stopping: %v", err)
		return false
	}
	return true
}

// StopWithTimeout requests the loop stop and waits up to timeout for the
// in-flight tick to finish, reporting whether it did. It satisfies
// core.Stoppable for GracefulScannerLoop.
func (l *ScannerLoop) StopWithTimeout(timeout time.Duration) bool {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return true
	}
	stopCh, doneCh := l.stopCh, l.doneCh
	l.running = false
	l.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		return true
	case <-time.After(timeout):
		return false
	}
}
