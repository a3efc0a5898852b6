package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chaincred/chaincred/internal/chain"
	"github.com/chaincred/chaincred/internal/config"
	"github.com/chaincred/chaincred/internal/credit"
	"github.com/chaincred/chaincred/internal/infra"
	"github.com/chaincred/chaincred/internal/jobs"
	"github.com/chaincred/chaincred/internal/loans"
	"github.com/chaincred/chaincred/internal/logging"
	"github.com/chaincred/chaincred/internal/metrics"
	"github.com/chaincred/chaincred/internal/notification"
	"github.com/chaincred/chaincred/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := infra.Migrate(cfg.DatabaseURL); err != nil {
		logger.Error("run migrations", "error", err)
		os.Exit(1)
	}

	cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("connect redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Warn("close redis", "error", err)
		}
	}()

	m := metrics.New()

	var registry chain.Registry
	if cfg.ChainRPCURL != "" {
		registry = chain.NewRPCRegistry(cfg.ChainRPCURL, cfg.RegistryContract, func(method, outcome string) {
			m.ChainCalls.WithLabelValues(method, outcome).Inc()
		})
	} else {
		if !cfg.IsDev() {
			logger.Error("CHAIN_RPC_URL must be set outside development")
			os.Exit(1)
		}
		logger.Warn("no chain node configured, using in-memory registry")
		registry = chain.NewMemoryRegistry()
	}

	srv, err := server.New(cfg, db, cache, registry, m, logger)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	// The sweep runs against its own service instances; they share the
	// same backends as the request path.
	var predictor credit.Predictor = credit.StaticPredictor{}
	if cfg.ModelEndpoint != "" {
		predictor = credit.NewHTTPPredictor(cfg.ModelEndpoint)
	}
	notifier := notification.NewLoggerNotifier(logger)
	creditSvc := credit.NewService(registry, credit.NewPostgresRepository(db), predictor, cache, cfg.ScoreCacheTTL, notifier, m.ScoresComputed.Inc)
	sched := jobs.New(loans.NewPostgresRepository(db), creditSvc, logging.WithComponent(logger, "jobs"))
	if err := sched.Start(cfg.SweepSchedule); err != nil {
		logger.Error("start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
