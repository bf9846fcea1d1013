package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cartstore/internal/app"
	"cartstore/internal/database/memory"
	"cartstore/internal/database/psql"
	"cartstore/internal/database/redisdb"
	cartservice "cartstore/internal/service/cart"
	"cartstore/pkg/config"
	"cartstore/pkg/lib/logger"
	"cartstore/pkg/lib/logger/sl"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type storage interface {
	cartservice.CartStorage
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.SetupLogger(cfg.HTTP.Env)
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	var store storage
	switch cfg.Storage.Driver {
	case config.DriverRedis:
		store, err = redisdb.Connect(ctx, log, cfg.Redis.URL, cfg.Redis.TTL)
	case config.DriverPostgres:
		store, err = psql.New(log, cfg.ConnectionString())
	default:
		store = memory.New()
	}
	if err != nil {
		log.Error("Failed to open storage", sl.Err(err))
		os.Exit(1)
	}

	pricing, err := cfg.PricingRules()
	if err != nil {
		log.Error("Invalid pricing rules", sl.Err(err))
		os.Exit(1)
	}

	application, err := app.New(
		log,
		cfg.HTTP,
		store,
		cartservice.WithKey(cfg.Storage.Key),
		cartservice.WithPricing(pricing),
	)
	if err != nil {
		log.Error("Failed to build application", sl.Err(err))
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(application.Run)
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return application.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Application stopped with error", sl.Err(err))
	}

	log.Info("Closing storage", "driver", cfg.Storage.Driver)
	if err := store.Close(); err != nil {
		log.Error("Failed to close storage", sl.Err(err))
	}
}
