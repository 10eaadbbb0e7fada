package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lewisedginton/chatbridge/internal/appdata"
	"github.com/lewisedginton/chatbridge/internal/chatapi"
	appconfig "github.com/lewisedginton/chatbridge/internal/config"
	"github.com/lewisedginton/chatbridge/internal/notify"
	"github.com/lewisedginton/chatbridge/internal/server"
	"github.com/lewisedginton/chatbridge/pkg/logger"
	"github.com/lewisedginton/chatbridge/pkg/metrics"
	"github.com/lewisedginton/chatbridge/pkg/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	cfg, err := appconfig.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewLogger(cfg.LogConfig())
	log.Info("Configuration loaded",
		logger.StringField("environment", cfg.Environment),
		logger.StringField("addr", cfg.HTTP.Addr()))

	dataDir := cfg.AppData.Dir
	if dataDir == "" {
		dataDir, err = appdata.DefaultDir(cfg.AppData.AppName)
		if err != nil {
			return err
		}
	}
	if err := appdata.EnsureDir(dataDir); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	data := appdata.NewManager(dataDir, appdata.NewLocalFileProvider(), log)
	log.Info("Application data directory ready", logger.StringField("dir", dataDir))

	var notifier notify.Notifier = notify.NewDesktop(log)
	if !cfg.Notifications.Enabled {
		notifier = notify.Noop{}
		log.Info("Desktop notifications disabled")
	}

	m := metrics.NewMetrics(cfg.Metrics.EnableHTTPMetrics, cfg.Metrics.EnableChatMetrics, log)
	if cfg.Metrics.ExposeMetrics {
		m.Listen(cfg.Metrics.Port)
	}

	chat := chatapi.New(log)
	srv := server.New(cfg, log, chat, data, notifier, &m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		if err := srv.Listen(ctx); err != nil {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	mergedErrChan := utils.MergeErrorChans(errChan)

	select {
	case sig := <-sigChan:
		log.Info("Received shutdown signal", logger.StringField("signal", sig.String()))
		cancel()
		// Let the server finish its graceful shutdown.
		if err := <-mergedErrChan; err != nil {
			return err
		}
		log.Info("Server exited gracefully")
	case err := <-mergedErrChan:
		if err != nil {
			log.Error("Fatal server error occurred", logger.ErrorField(err))
			return err
		}
		log.Info("Server exited normally")
	}

	return nil
}
