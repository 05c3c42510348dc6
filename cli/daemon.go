package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/netresearch/watchdogd/core"
	"github.com/netresearch/watchdogd/logging"
	"github.com/netresearch/watchdogd/notify"
	"github.com/netresearch/watchdogd/store"
	"github.com/netresearch/watchdogd/web"
)

// DaemonCommand is the go-flags command that boots the watchdog process:
// it opens the database, wires the timeout-detection engine, starts the
// scanner loop and the REST façade, and blocks until a shutdown signal.
type DaemonCommand struct {
	Config

	shutdownManager *core.ShutdownManager
	logger          *core.LogrusAdapter
	done            chan struct{}
}

// Execute runs the daemon. It satisfies go-flags' Commander interface.
func (c *DaemonCommand) Execute(_ []string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	c.logger = buildLogrusLogger(c.LogLevel)
	c.done = make(chan struct{})
	c.shutdownManager = core.NewShutdownManager(c.logger, 30*time.Second)

	ctx := context.Background()

	pool, err := store.NewPool(ctx, c.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	if _, err := pool.Exec(ctx, store.Schema); err != nil {
		pool.Close()
		return fmt.Errorf("apply schema: %w", err)
	}

	configs := store.NewPostgresConfigStore(pool)
	runs := store.NewPostgresRunStore(pool)
	channels := store.NewPostgresChannelStore(pool)
	settings := store.NewPostgresSettingsStore(pool)

	settingsCache, err := notify.NewSettingsCache(ctx, settings, c.logger)
	if err != nil {
		pool.Close()
		return fmt.Errorf("load initial settings: %w", err)
	}
	go settingsCache.Run(ctx)

	registry := notify.NewRegistry(
		notify.NewWebhookPlugin(core.ProviderGchatWebhook),
		notify.NewWebhookPlugin(core.ProviderSlackWebhook),
		notify.NewSMTPPlugin(),
	)
	dispatcher := notify.NewDispatcher(channels, registry, c.logger)
	dispatcherAdapter := notify.DispatcherAdapter{Dispatcher: dispatcher}

	ingestor := core.NewIngestor(configs, runs, settings, dispatcherAdapter, c.logger)

	graceSeconds := time.Duration(c.GraceTimeSeconds) * time.Second
	scanner := core.NewScanner(configs, runs, settingsCache, dispatcherAdapter, c.logger, nil, graceSeconds)

	scannerLoop := core.NewScannerLoop(
		scanner.ScanOnce,
		nil,
		c.logger,
		time.Duration(c.InitialDelaySeconds)*time.Second,
		time.Duration(c.FixedDelaySeconds)*time.Second,
	)
	core.NewGracefulScannerLoop(scannerLoop, c.shutdownManager)

	accessLog := logging.NewStructuredLogger()
	if err := ApplyLogLevel(c.LogLevel, accessLog); err != nil {
		c.logger.Warningf("%v, access log stays at info", err)
	}

	server := web.NewServer(c.ListenAddr, web.Deps{
		Configs:   configs,
		Runs:      runs,
		Channels:  channels,
		Settings:  settings,
		Registry:  registry,
		Ingestor:  ingestor,
		Logger:    c.logger,
		AccessLog: accessLog,
	})
	core.NewGracefulServer(server.HTTPServer(), c.shutdownManager, c.logger)

	c.shutdownManager.RegisterHook(core.ShutdownHook{
		Name:     "database-pool",
		Priority: 30,
		Hook: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	c.shutdownManager.ListenForShutdown()
	go func() {
		<-c.shutdownManager.ShutdownChan()
		close(c.done)
	}()

	scannerLoop.Start(ctx)

	if err := server.Start(); err != nil {
		c.logger.Criticalf("failed to start web server: %v", err)
		return fmt.Errorf("start web server: %w", err)
	}

	c.logger.Noticef("watchdog listening on %s", c.ListenAddr)

	<-c.done
	return nil
}

func buildLogrusLogger(level string) *core.LogrusAdapter {
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	return &core.LogrusAdapter{Logger: logger}
}
