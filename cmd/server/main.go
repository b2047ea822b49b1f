package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/aveekpatra/BestClient-sub000/internal/config"
	"github.com/aveekpatra/BestClient-sub000/internal/events/kafka"
	"github.com/aveekpatra/BestClient-sub000/internal/interfaces"
	"github.com/aveekpatra/BestClient-sub000/internal/ledger"
	"github.com/aveekpatra/BestClient-sub000/internal/server"
	"github.com/aveekpatra/BestClient-sub000/internal/storage/memory"
	"github.com/aveekpatra/BestClient-sub000/internal/storage/postgres"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel)

	var store interfaces.Store
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to open database: ", err)
		}
		defer db.Close()

		pgStore := postgres.NewStore(db)
		if err := pgStore.EnsureSchema(context.Background()); err != nil {
			logger.Fatal("failed to ensure schema: ", err)
		}
		store = pgStore
		logger.Info("using postgres store")
	} else {
		store = memory.NewStore()
		logger.Warn("DATABASE_URL not set, using in-memory store")
	}

	var publisher interfaces.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.Info("publishing balance events to kafka topic ", cfg.KafkaTopic)
	}

	ledgerService := ledger.NewService(store, publisher, logger)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.New(ledgerService, logger).Router(),
	}

	go func() {
		logger.Info("starting server on :", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown: ", err)
	}
}
