package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcelsud/leadhub/config"
	"github.com/marcelsud/leadhub/delivery"
	"github.com/marcelsud/leadhub/destinations"
	"github.com/marcelsud/leadhub/internal/http/chi"
	"github.com/marcelsud/leadhub/internal/logger"
	"github.com/marcelsud/leadhub/internal/storage"
	"github.com/marcelsud/leadhub/lead"
	"github.com/marcelsud/leadhub/metrics"
	"github.com/marcelsud/leadhub/webhook"
	"github.com/rs/zerolog"
)

const TIMEOUT = 30 * time.Second

/*
 * main wires the packages together: config, stores, the dispatcher, the
 * services and the router. Imports only go one way, down: the binary imports
 * the business packages, which import the storage layer.
 */

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	log := logger.New(logger.Options{
		ServiceName: "leadhub-api",
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
	})

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	stores, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer stores.Close(context.Background())

	if cfg.DestinationsFile != "" {
		if err := seedDestinations(ctx, cfg.DestinationsFile, stores.Webhooks, log); err != nil {
			return err
		}
	}

	dispatcher := delivery.NewDispatcher(stores.Webhooks, stores.Webhooks, delivery.Config{
		MaxAttempts:    cfg.WebhookMaxAttempts,
		Timeout:        cfg.WebhookTimeout(),
		UserAgent:      cfg.WebhookUserAgent,
		MaxConcurrency: cfg.GetWebhookMaxConcurrency(),
	}, log)

	leadService := lead.NewService(stores.Leads, dispatcher)
	webhookService := webhook.NewService(stores.Webhooks)
	webhookService.LogLimit = cfg.GetWebhookLogLimit()

	exporter, err := metrics.NewOTelExporter(metrics.NewStoreCollector(stores.Webhooks, stores.Webhooks, dispatcher))
	if err != nil {
		return fmt.Errorf("creating metrics exporter: %w", err)
	}
	defer exporter.Shutdown(context.Background())

	r := chi.Handlers(ctx, leadService, webhookService, dispatcher, exporter.ServeHTTP())
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, dispatcher, ctx, errShutdown, log)
	log.Info().Str("port", cfg.Port).Msg("listening")
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return <-errShutdown
}

func seedDestinations(ctx context.Context, file string, store destinations.Store, log zerolog.Logger) error {
	loader := destinations.NewLoader()
	if err := loader.Load(file); err != nil {
		return fmt.Errorf("loading destinations: %w", err)
	}
	n, err := loader.Apply(ctx, store, log)
	if err != nil {
		return err
	}
	log.Info().Int("created", n).Str("file", file).Msg("destination seed applied")
	return nil
}

// shutdown stops the HTTP server first so no new leads arrive, then drains the dispatcher
func shutdown(server *http.Server, dispatcher *delivery.Dispatcher, ctxShutdown context.Context, errShutdown chan error, log zerolog.Logger) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	log.Info().Msg("shutting down server")
	if err := server.Shutdown(ctxTimeout); err != nil {
		errShutdown <- fmt.Errorf("forcing closing the server: %w", err)
		return
	}
	if err := dispatcher.Shutdown(ctxTimeout); err != nil {
		errShutdown <- err
		return
	}
	errShutdown <- nil
}
