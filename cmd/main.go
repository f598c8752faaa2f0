package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"

	"github.com/ndavydov/applicant-sync/internal/api"
	"github.com/ndavydov/applicant-sync/internal/clients/airtable"
	"github.com/ndavydov/applicant-sync/internal/clients/gemini"
	"github.com/ndavydov/applicant-sync/internal/config"
	"github.com/ndavydov/applicant-sync/internal/logger"
	"github.com/ndavydov/applicant-sync/internal/metrics"
	"github.com/ndavydov/applicant-sync/internal/notifier"
	"github.com/ndavydov/applicant-sync/internal/services"
	"github.com/ndavydov/applicant-sync/internal/tablestore"
	"github.com/ndavydov/applicant-sync/pkg/keymutex"
)

func newStore(cfg *config.Config) tablestore.Store {

	if cfg.Store.Backend == config.BackendSqlite {
		store, err := tablestore.NewSqliteStore(cfg.Store.ConnectionString)
		if err != nil {
			log.Fatalf("can't create sqlite store: %v", err)
		}
		return store
	}

	client := airtable.NewClient(cfg.Store.AirtableToken, cfg.Store.AirtableBaseID)
	client.SetRateLimit(cfg.Store.MaxRequestsPerSecond)
	return client
}

func newEnricher(ctx context.Context, cfg *config.Config) *services.Enricher {

	aiClient, err := gemini.NewClient(ctx, cfg.AI.Key, gemini.Model(cfg.AI.Model))
	if err != nil {
		log.Fatalf("can't create AI client: %v", err)
	}
	aiClient.SetMinuteRateLimit(cfg.AI.MaxRequestsPerMinute)
	aiClient.SetDayRateLimit(cfg.AI.MaxRequestsPerDay)

	return services.NewEnricher(aiClient)
}

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(cfg.Logger)
	defer logger.Cleanup()

	metrics.StartMetricsServer(cfg.Service.MetricsPort)

	store := newStore(cfg)
	schema := cfg.Store.Schema
	bus := EventBus.New()

	evaluator := services.NewEvaluator(services.Rules{
		AllowedCountries:   cfg.Shortlist.AllowedCountries,
		MaxPreferredRate:   cfg.Shortlist.MaxPreferredRate,
		MinAvailability:    cfg.Shortlist.MinAvailability,
		MinExperienceYears: cfg.Shortlist.MinExperienceYears,
		Tier1Companies:     cfg.Shortlist.Tier1Companies,
	})

	compressor := services.NewCompressor(store, schema)
	decompressor := services.NewDecompressor(store, schema, keymutex.New())

	shortlister, err := services.NewShortlister(store, schema, evaluator, newEnricher(ctx, cfg), bus)
	if err != nil {
		log.Fatalf("can't create shortlister: %v", err)
	}

	if cfg.Service.TelegramToken != "" {
		if _, err = notifier.NewTelegram(cfg.Service.TelegramToken, cfg.Service.TelegramChatID, bus); err != nil {
			log.Fatalf("can't create telegram notifier: %v", err)
		}
	}

	if cfg.Service.SweepSchedule != "" {
		sweeper, err := services.NewSweeper(compressor, shortlister, cfg.Service.SweepSchedule)
		if err != nil {
			log.Fatalf("can't create sweeper: %v", err)
		}
		defer sweeper.Stop()
	}

	server := api.NewServer(cfg.Service.APIPort, compressor, decompressor, shortlister)
	go func() {
		if err := server.Run(); err != nil {
			log.Fatalf("api server failed: %v", err)
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down services...")
	if err = server.Shutdown(context.Background()); err != nil {
		log.Errorf("api server shutdown failed: %v", err)
	}
	log.Info("Services stopped.")
}
