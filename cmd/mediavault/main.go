// Command mediavault runs the media catalog server: it loads
// configuration, opens the catalog database, starts the event bus,
// registers the feature modules, and serves the HTTP API until
// interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dxing/mediavault/internal/config"
	"github.com/dxing/mediavault/internal/database"
	"github.com/dxing/mediavault/internal/events"
	"github.com/dxing/mediavault/internal/logger"
	"github.com/dxing/mediavault/internal/modules/assetmodule"
	"github.com/dxing/mediavault/internal/modules/catalogmodule"
	"github.com/dxing/mediavault/internal/modules/modulemanager"
	"github.com/dxing/mediavault/internal/modules/scannermodule"
	"github.com/dxing/mediavault/internal/server"
)

func main() {
	configPath := flag.String("config", "mediavault.yaml", "path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "mediavault: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Configure(cfg.Logging.Level)

	db, err := database.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	database.SetDB(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventBus := events.NewBus()
	if err := eventBus.Start(ctx); err != nil {
		return fmt.Errorf("start event bus: %w", err)
	}
	events.SetGlobalEventBus(eventBus)

	scannermodule.Register(db, eventBus, cfg)
	catalogmodule.Register(db, cfg)
	assetmodule.Register(db, cfg)

	if err := modulemanager.LoadAll(db); err != nil {
		return fmt.Errorf("load modules: %w", err)
	}

	router := server.New(cfg, db, eventBus)
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	eventBus.PublishAsync(events.NewSystemEvent(events.EventSystemStarted, "System started", "mediavault is up"))

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	eventBus.PublishAsync(events.NewSystemEvent(events.EventSystemStopped, "System stopping", "shutdown requested"))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	modulemanager.ShutdownAll()
	if err := eventBus.Stop(shutdownCtx); err != nil {
		logger.Warn("Event bus stop incomplete", "error", err)
	}
	return nil
}
