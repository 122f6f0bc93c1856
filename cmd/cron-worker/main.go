package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/cron"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/engine"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/config"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/db"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/instance"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/logger"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/metrics"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/migrate"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	engineMetrics := metrics.NewEngineMetrics(prometheus.DefaultRegisterer)
	eng, err := engine.New(engine.Params{
		Config:  cfg,
		DB:      dbClient,
		Metrics: engineMetrics,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to wire engine", err)
		os.Exit(1)
	}

	registry, err := buildRegistry(cfg, logg, eng, engineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker:"+envName(cfg.App.Env)), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
		"interval":    cfg.Cron.Interval.String(),
	})

	if *once {
		logg.Info(ctx, "running single cron cycle")
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		return
	}

	if cfg.FeatureFlags.ExposeMetrics {
		go serveMetrics(ctx, logg, ":"+cfg.App.Port)
	}

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

// buildRegistry orders the rollover ahead of the jobs that read monthly buckets.
func buildRegistry(cfg *config.Config, logg *logger.Logger, eng *engine.Engine, gauge *metrics.EngineMetrics) (*cron.Registry, error) {
	rollover, err := cron.NewMonthlyRolloverJob(cron.MonthlyRolloverJobParams{
		Logger:    logg,
		Referrals: eng.ReferralRepo,
	})
	if err != nil {
		return nil, err
	}
	reconcile, err := cron.NewLedgerReconcileJob(cron.LedgerReconcileJobParams{
		Logger:    logg,
		Referrals: eng.ReferralRepo,
		Ledger:    eng.Ledger,
		Metrics:   gauge,
	})
	if err != nil {
		return nil, err
	}
	refresh, err := cron.NewTrustRefreshJob(cron.TrustRefreshJobParams{
		Logger:    logg,
		Summaries: eng.Summaries,
		Trust:     eng.Trust,
		BatchSize: cfg.Cron.TrustRefreshSize,
	})
	if err != nil {
		return nil, err
	}
	return cron.NewRegistry(rollover, reconcile, refresh), nil
}

func serveMetrics(ctx context.Context, logg *logger.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "metrics server stopped", err)
	}
}

func envName(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
