package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/example/ride-compare/internal/config"
	"github.com/example/ride-compare/internal/gazetteer"
	httpapi "github.com/example/ride-compare/internal/http"
	"github.com/example/ride-compare/internal/ingest"
	"github.com/example/ride-compare/internal/logging"
	"github.com/example/ride-compare/internal/market"
	"github.com/example/ride-compare/internal/payments"
	"github.com/example/ride-compare/internal/storage"
	"github.com/example/ride-compare/internal/stream"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		panic(err)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	var store storage.Store
	if cfg.PGDSN != "" {
		pg, err := storage.NewPostgresStore(cfg.PGDSN)
		if err != nil {
			logger.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		if cfg.RunMigrations {
			if b, err := os.ReadFile(filepath.Join("migrations", "001_create_schema.sql")); err == nil {
				if _, err := pg.DB().Exec(string(b)); err != nil {
					logger.Error("migration failed", "error", err)
					os.Exit(1)
				}
				logger.Info("migration applied", "file", "001_create_schema.sql")
			}
		}
		store = pg
		logger.Info("storage backend", "kind", "postgres")
	} else {
		store = storage.NewMemoryStore()
		logger.Info("storage backend", "kind", "memory")
	}

	var gaz gazetteer.Gazetteer
	if cfg.RedisAddr != "" {
		rg := gazetteer.NewRedisGazetteer(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisGazetteerKey)
		if err := rg.SeedIfEmpty(); err != nil {
			logger.Warn("gazetteer seed failed", "error", err)
		}
		gaz = rg
	} else {
		gaz = gazetteer.NewSeededIndex()
	}

	var producer *ingest.KafkaProducer
	if len(cfg.KafkaBrokers) > 0 {
		producer = ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
	}

	var stripeClient *payments.StripeClient
	if cfg.StripeEnabled {
		stripeClient = payments.NewStripeClient()
	}

	srv := httpapi.NewServer(cfg, httpapi.Deps{
		Store:     store,
		Engine:    market.New(),
		Gazetteer: gaz,
		Kafka:     producer,
		Stream:    stream.NewRegistry(),
		Stripe:    stripeClient,
		Logger:    logger,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("ride-compare listening", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
