package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/api/routes"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/engine"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/notify"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/config"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/db"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/instance"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/logger"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/metrics"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/migrate"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engineMetrics := metrics.NewEngineMetrics(prometheus.DefaultRegisterer)
	bus := notify.NewBus(cfg.Notify.BufferSize, engineMetrics, logg)

	var publisher notify.Publisher = bus
	if cfg.FeatureFlags.NotifyRelay {
		relay, err := notify.NewRedisRelay(redisClient, cfg.Notify.RelayChannel, bus, logg)
		if err != nil {
			logg.Error(ctx, "failed to create change relay", err)
			os.Exit(1)
		}
		publisher = relay
		go func() {
			if err := relay.Run(ctx); err != nil {
				logg.Error(ctx, "change relay stopped", err)
			}
		}()
	}

	eng, err := engine.New(engine.Params{
		Config:    cfg,
		DB:        dbClient,
		Publisher: publisher,
		Metrics:   engineMetrics,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to wire engine", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"relay":    cfg.FeatureFlags.NotifyRelay,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Trust:     eng.Trust,
			Referrals: eng.Referrals,
			Stream:    bus,
			Metrics:   promhttp.Handler(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
		// hijacked stream connections outlive Shutdown; tie them to the signal context
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}
