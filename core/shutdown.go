package core

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ShutdownManager handles graceful shutdown of the application
type ShutdownManager struct {
	timeout        time.Duration
	hooks          []ShutdownHook
	mu             sync.Mutex
	shutdownChan   chan struct{}
	isShuttingDown bool
	logger         Logger
}

// ShutdownHook is a function to be called during shutdown
type ShutdownHook struct {
	Name     string
	Priority int // Lower values execute first
	Hook     func(context.Context) error
}

// NewShutdownManager creates a new shutdown manager
func NewShutdownManager(logger Logger, timeout time.Duration) *ShutdownManager {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &ShutdownManager{
		timeout:      timeout,
		hooks:        make([]ShutdownHook, 0),
		shutdownChan: make(chan struct{}),
		logger:       logger,
	}
}

// RegisterHook registers a shutdown hook
func (sm *ShutdownManager) RegisterHook(hook ShutdownHook) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.hooks = append(sm.hooks, hook)

	// Sort hooks by priority
	for i := len(sm.hooks) - 1; i > 0; i-- {
		if sm.hooks[i].Priority < sm.hooks[i-1].Priority {
			sm.hooks[i], sm.hooks[i-1] = sm.hooks[i-1], sm.hooks[i]
		} else {
			break
		}
	}
}

// ListenForShutdown starts listening for shutdown signals
func (sm *ShutdownManager) ListenForShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan,
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)

	go func() {
		sig := <-sigChan
		sm.logger.Warningf("Received shutdown signal: %v", sig)
		sm.Shutdown()
	}()
}

// Shutdown initiates graceful shutdown
func (sm *ShutdownManager) Shutdown() error {
	sm.mu.Lock()
	if sm.isShuttingDown {
		sm.mu.Unlock()
		return fmt.Errorf("shutdown already in progress")
	}
	sm.isShuttingDown = true
	sm.mu.Unlock()

	sm.logger.Noticef("Starting graceful shutdown (timeout: %v)", sm.timeout)

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), sm.timeout)
	defer cancel()

	// Signal that shutdown has started
	close(sm.shutdownChan)

	// Execute shutdown hooks in order
	var wg sync.WaitGroup
	errChan := make(chan error, len(sm.hooks))

	wg.Add(1)
	go func() {
		defer wg.Done()

		for _, h := range sm.hooks {
			sm.logger.Debugf("Executing shutdown hook: %s (priority: %d)", h.Name, h.Priority)

			if err := h.Hook(ctx); err != nil {
				sm.logger.Errorf("Shutdown hook '%s' failed: %v", h.Name, err)
				errChan <- fmt.Errorf("hook %s: %w", h.Name, err)
			} else {
				sm.logger.Debugf("Shutdown hook '%s' completed successfully", h.Name)
			}
		}
	}()

	// Wait for all hooks to complete or timeout
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		sm.logger.Noticef("Graceful shutdown completed successfully")
	case <-ctx.Done():
		sm.logger.Errorf("Graceful shutdown timed out after %v", sm.timeout)
		return fmt.Errorf("shutdown timed out")
	}

	// Check for errors
	close(errChan)
	var errors []error
	for err := range errChan {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("shutdown completed with %d errors", len(errors))
	}

	return nil
}

// ShutdownChan returns a channel that's closed when shutdown starts
func (sm *ShutdownManager) ShutdownChan() <-chan struct{} {
	return sm.shutdownChan
}

// IsShuttingDown returns true if shutdown is in progress
func (sm *ShutdownManager) IsShuttingDown() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.isShuttingDown
}

// Stoppable is anything that can be asked to stop within a bounded time,
// reporting whether it managed to. The scanner loop satisfies this without
// core needing to import its package.
type Stoppable interface {
	StopWithTimeout(timeout time.Duration) bool
}

// GracefulScannerLoop wraps a Stoppable scanner loop with graceful
// shutdown: its Stop hook is registered with a ShutdownManager so the
// in-flight scan tick is allowed to finish before the process exits.
type GracefulScannerLoop struct {
	loop            Stoppable
	shutdownManager *ShutdownManager
}

// NewGracefulScannerLoop registers loop's Stop as a shutdown hook.
func NewGracefulScannerLoop(loop Stoppable, shutdownManager *ShutdownManager) *GracefulScannerLoop {
	gs := &GracefulScannerLoop{
		loop:            loop,
		shutdownManager: shutdownManager,
	}

	shutdownManager.RegisterHook(ShutdownHook{
		Name:     "scanner-loop",
		Priority: 10,
		Hook:     gs.gracefulStop,
	})

	return gs
}

func (gs *GracefulScannerLoop) gracefulStop(ctx context.Context) error {
	deadline := gs.shutdownManager.timeout
	if dl, ok := ctx.Deadline(); ok {
		deadline = time.Until(dl)
	}
	if !gs.loop.StopWithTimeout(deadline) {
		return fmt.Errorf("timeout waiting for scanner loop to stop")
	}
	return nil
}

// GracefulServer wraps an HTTP server with graceful shutdown
type GracefulServer struct {
	server          *http.Server
	shutdownManager *ShutdownManager
	logger          Logger
}

// NewGracefulServer creates a server with graceful shutdown support
func NewGracefulServer(server *http.Server, shutdownManager *ShutdownManager, logger Logger) *GracefulServer {
	gs := &GracefulServer{
		server:          server,
		shutdownManager: shutdownManager,
		logger:          logger,
	}

	// Register server shutdown hook
	shutdownManager.RegisterHook(ShutdownHook{
		Name:     "http-server",
		Priority: 20, // After scheduler
		Hook:     gs.gracefulStop,
	})

	return gs
}

// gracefulStop stops the HTTP server gracefully
func (gs *GracefulServer) gracefulStop(ctx context.Context) error {
	gs.logger.Noticef("Stopping HTTP server gracefully")

	// Stop accepting new connections
	if err := gs.server.Shutdown(ctx); err != nil {
		gs.logger.Errorf("HTTP server shutdown error: %v", err)
		return err
	}

	gs.logger.Noticef("HTTP server stopped successfully")
	return nil
}
