// Package main is the entry point for the bidding auto-close watcher.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FacuTaborra/FastServices2.0-sub000/internal/api"
	"github.com/FacuTaborra/FastServices2.0-sub000/internal/bidding"
	"github.com/FacuTaborra/FastServices2.0-sub000/internal/requests"
	"github.com/FacuTaborra/FastServices2.0-sub000/internal/session"
	"github.com/FacuTaborra/FastServices2.0-sub000/internal/watcher"
	"github.com/FacuTaborra/FastServices2.0-sub000/shared/config"
	"github.com/FacuTaborra/FastServices2.0-sub000/shared/db"
	"github.com/FacuTaborra/FastServices2.0-sub000/shared/logging"
)

type args struct {
	RunOnce     bool          `arg:"--run-once" help:"run a single cycle and exit"`
	Port        int           `arg:"-p,--port,env:WATCHER_PORT" default:"8081" help:"HTTP port for health checks and metrics"`
	Interval    time.Duration `arg:"--interval" help:"polling interval (defaults to COUNTDOWN_INTERVAL)"`
	Concurrency int           `arg:"--concurrency" default:"5" help:"max auto-close calls per cycle"`
	Owner       string        `arg:"--owner,env:WATCHER_OWNER" help:"replica id stored in the shared latch (defaults to hostname)"`
}

func (args) Description() string {
	return "Closes FastServices bidding requests when their deadline passes."
}

func main() {
	var a args
	arg.MustParse(&a)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(a, cfg, logger); err != nil {
		logger.Errorw("watcher exited", "error", err)
		os.Exit(1)
	}
}

func run(a args, cfg *config.Config, logger *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Infow("starting watcher", "run_once", a.RunOnce, "port", a.Port, "api", cfg.APIBaseURL)

	checks := readiness{}

	var tokens session.Store
	var recorder watcher.Recorder
	if cfg.DatabaseURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		database, err := db.Connect(connectCtx, cfg.DatabaseURL)
		if err == nil {
			err = database.EnsureSchema(connectCtx, session.Schema, watcher.Schema)
		}
		cancel()
		if err != nil {
			if database != nil {
				database.Close()
			}
			return fmt.Errorf("database: %w", err)
		}
		defer database.Close()
		logger.Infow("connected to database")

		tokens = session.NewPostgresStore(database, cfg.SessionProfile)
		recorder = watcher.NewStore(database)
		checks["database"] = database.Ping
	} else {
		fileStore, err := session.NewFileStore(cfg.SessionFile)
		if err != nil {
			return err
		}
		tokens = fileStore
	}

	latch, err := newLatch(ctx, cfg.RedisURL, a.Owner, logger)
	if err != nil {
		return err
	}
	if rl, ok := latch.(*redisLatch); ok {
		defer rl.client.Close()
		checks["redis"] = func(ctx context.Context) error { return rl.client.Ping(ctx).Err() }
	}

	client := api.New(cfg.APIBaseURL, tokens,
		api.WithTimeout(cfg.APITimeout),
		api.WithLogger(logger),
	)
	closer := requests.NewService(client, requests.WithLogger(logger))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	interval := a.Interval
	if interval <= 0 {
		interval = cfg.CountdownInterval
	}
	w := watcher.New(client, closer, recorder,
		watcher.WithInterval(interval),
		watcher.WithMaxConcurrency(a.Concurrency),
		watcher.WithRunOnStart(!a.RunOnce),
		watcher.WithLatch(latch),
		watcher.WithMetrics(watcher.NewMetrics(reg)),
		watcher.WithLogger(logger),
	)
	checks["watcher"] = func(context.Context) error { return w.Ready() }

	if a.RunOnce {
		stats, err := w.RunOnce(ctx)
		if err != nil {
			return err
		}
		logger.Infow("watcher cycle complete",
			"duration", stats.Duration.String(),
			"tracked", stats.Tracked,
			"auto_closed", stats.AutoClosed,
			"close_failed", stats.CloseFailed,
		)
		return nil
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Port),
		Handler:      newRouter(reg, checks),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infow("starting health check server", "addr", server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		w.Run(gctx.Done())
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Infow("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Infow("watcher stopped")
	return nil
}

// redisLatch keeps the client next to the latch so main can close it.
type redisLatch struct {
	*bidding.RedisLatch
	client *redis.Client
}

func newLatch(ctx context.Context, redisURL, owner string, logger *zap.SugaredLogger) (bidding.Latch, error) {
	if redisURL == "" {
		logger.Infow("REDIS_URL not set, auto-close latch is local to this process")
		return bidding.NewMemoryLatch(), nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if owner == "" {
		owner, _ = os.Hostname()
	}
	logger.Infow("using shared auto-close latch", "owner", owner)
	return &redisLatch{
		RedisLatch: bidding.NewRedisLatch(client, "", owner, bidding.DefaultLatchTTL),
		client:     client,
	}, nil
}
