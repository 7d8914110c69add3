package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/draftnight/draftnight/internal/config"
	"github.com/draftnight/draftnight/internal/events"
	"github.com/draftnight/draftnight/internal/scheduler"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := setupDatabase()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Nats.Enabled {
		js, err := events.NewJetStreamPublisher(jetStreamConfig(cfg))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to NATS")
		}
		defer js.Close()
		publisher = js
	}

	clock := clockwork.NewRealClock()
	services := setupServices(db, publisher, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(services.Store, services.AutoPicker, services.Windows, clock, scheduler.Config{
		Interval:         cfg.SchedulerInterval(),
		BatchSize:        cfg.Scheduler.BatchSize,
		InterDraftDelay:  cfg.InterDraftDelay(),
		FailureThreshold: cfg.Scheduler.FailureThreshold,
		RestartDelay:     cfg.RestartDelay(),
	})
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("scheduler stopped")
		}
	}()

	server := setupServer(cfg, services)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	cancel()

	log.Info().Msg("shutdown complete")
}

func jetStreamConfig(cfg *config.Config) events.JetStreamConfig {
	jsCfg := events.DefaultJetStreamConfig()
	if cfg.Nats.URL != "" {
		jsCfg.URL = cfg.Nats.URL
	}
	if cfg.Nats.StreamName != "" {
		jsCfg.StreamName = cfg.Nats.StreamName
	}
	if cfg.Nats.SubjectPrefix != "" {
		jsCfg.SubjectPrefix = cfg.Nats.SubjectPrefix
	}
	return jsCfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
