package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Samuelzila/grammar-police/common/id"
	"github.com/Samuelzila/grammar-police/common/logger"
	"github.com/Samuelzila/grammar-police/common/otel"
	"github.com/Samuelzila/grammar-police/core/config"
	"github.com/Samuelzila/grammar-police/internal/bootstrap"
	"github.com/Samuelzila/grammar-police/internal/queue"
	"github.com/Samuelzila/grammar-police/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if !cfg.Pipeline.Queued() {
		slog.ErrorContext(ctx, "worker requires PIPELINE_MODE=queue", "mode", cfg.Pipeline.Mode)
		os.Exit(1)
	}

	slog.InfoContext(ctx, "grammar worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Pipeline.RedisGroup,
		"consumer_name", cfg.Pipeline.RedisConsumer,
		"concurrency", cfg.Pipeline.Concurrency)

	if err := id.Init(id.NodeWorker); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	res, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to open connections", "error", err)
		os.Exit(1)
	}
	defer res.Close()

	store, err := bootstrap.NewAllowList(cfg.AllowList, res)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create allow-list", "error", err)
		os.Exit(1)
	}

	replier, err := bootstrap.NewReplier(cfg, nil)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create repliers", "error", err)
		os.Exit(1)
	}

	p, err := bootstrap.NewPipeline(ctx, cfg, store, replier)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build pipeline", "error", err)
		os.Exit(1)
	}

	consumer, err := queue.NewRedisConsumer(res.Redis, queue.ConsumerConfig{
		Stream:    cfg.Pipeline.RedisStream,
		Group:     cfg.Pipeline.RedisGroup,
		Consumer:  cfg.Pipeline.RedisConsumer,
		DLQStream: cfg.Pipeline.RedisDLQStream,
		BatchSize: int64(cfg.Pipeline.Concurrency),
		Block:     5 * time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	w := worker.New(consumer, p, worker.Config{
		Concurrency: cfg.Pipeline.Concurrency,
		RunTimeout:  cfg.Pipeline.RunTimeout,
	})

	reclaimer := worker.NewReclaimer(consumer, worker.ReclaimerConfig{
		MinIdle:  5 * time.Minute,
		Interval: time.Minute,
	})

	reclaimCtx, stopReclaimer := context.WithCancel(ctx)
	defer stopReclaimer()

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx)
	}()
	go reclaimer.Run(reclaimCtx)

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	stopReclaimer()
	w.Stop()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
  __ _ _ __ __ _ _ __ ___  _ __ ___   __ _ _ __  __      _____  _ __| | _____ _ __
 / _' | '__/ _' | '_ ' _ \| '_ ' _ \ / _' | '__| \ \ /\ / / _ \| '__| |/ / _ \ '__|
| (_| | | | (_| | | | | | | | | | | | (_| | |     \ V  V / (_) | |  |   <  __/ |
 \__, |_|  \__,_|_| |_| |_|_| |_| |_|\__,_|_|      \_/\_/ \___/|_|  |_|\_\___|_|
 |___/
`
