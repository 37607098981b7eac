package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Samuelzila/grammar-police/common/id"
	"github.com/Samuelzila/grammar-police/common/logger"
	"github.com/Samuelzila/grammar-police/common/otel"
	"github.com/Samuelzila/grammar-police/core/config"
	"github.com/Samuelzila/grammar-police/internal/bootstrap"
	"github.com/Samuelzila/grammar-police/internal/http/middleware"
	httprouter "github.com/Samuelzila/grammar-police/internal/http/router"
	"github.com/Samuelzila/grammar-police/internal/queue"
	"github.com/Samuelzila/grammar-police/internal/service"
	"github.com/Samuelzila/grammar-police/internal/worker"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "grammar server starting",
		"env", cfg.Env,
		"pipeline_mode", cfg.Pipeline.Mode,
		"gitlab", cfg.GitLab.Enabled())

	if err := id.Init(id.NodeServer); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
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

	var (
		dispatcher service.Dispatcher
		inline     *worker.InlineDispatcher
	)
	if cfg.Pipeline.Queued() {
		producer := queue.NewRedisProducer(res.Redis, cfg.Pipeline.RedisStream, slog.Default())
		dispatcher = service.NewQueueDispatcher(producer)
	} else {
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
		inline = worker.NewInlineDispatcher(ctx, p, worker.Config{
			Concurrency: cfg.Pipeline.Concurrency,
			RunTimeout:  cfg.Pipeline.RunTimeout,
		})
		dispatcher = inline
	}

	services := service.NewServices(dispatcher, store, slog.Default())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if inline != nil {
		inline.Close()
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, services *service.Services) *gin.Engine {
	router := gin.New()

	// OTel creates the span first so recovery and request logs carry its trace id.
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		TraceHeaderName:     cfg.Pipeline.TraceHeader,
		AdminAPIKey:         cfg.AdminAPIKey,
		GitLabWebhookSecret: cfg.GitLab.WebhookSecret,
	})

	return router
}

const banner = `
  __ _ _ __ __ _ _ __ ___  _ __ ___   __ _ _ __   ___  ___ _ ____   _____ _ __
 / _' | '__/ _' | '_ ' _ \| '_ ' _ \ / _' | '__| / __|/ _ \ '__\ \ / / _ \ '__|
| (_| | | | (_| | | | | | | | | | | | (_| | |    \__ \  __/ |   \ V /  __/ |
 \__, |_|  \__,_|_| |_| |_|_| |_| |_|\__,_|_|    |___/\___|_|    \_/ \___|_|
 |___/
`
