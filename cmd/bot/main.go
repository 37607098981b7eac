package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Samuelzila/grammar-police/common/id"
	"github.com/Samuelzila/grammar-police/common/logger"
	"github.com/Samuelzila/grammar-police/common/otel"
	"github.com/Samuelzila/grammar-police/core/config"
	"github.com/Samuelzila/grammar-police/internal/bootstrap"
	"github.com/Samuelzila/grammar-police/internal/discord"
	"github.com/Samuelzila/grammar-police/internal/queue"
	"github.com/Samuelzila/grammar-police/internal/service"
	"github.com/Samuelzila/grammar-police/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeBot)
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

	slog.InfoContext(ctx, "grammar bot starting",
		"env", cfg.Env,
		"pipeline_mode", cfg.Pipeline.Mode,
		"allowlist_backend", cfg.AllowList.Backend)

	if err := id.Init(id.NodeBot); err != nil {
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

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create discord session", "error", err)
		os.Exit(1)
	}
	session.Identify.Intents = discord.Intents

	var (
		dispatcher service.Dispatcher
		inline     *worker.InlineDispatcher
	)
	if cfg.Pipeline.Queued() {
		producer := queue.NewRedisProducer(res.Redis, cfg.Pipeline.RedisStream, slog.Default())
		dispatcher = service.NewQueueDispatcher(producer)
	} else {
		replier, err := bootstrap.NewReplier(cfg, session)
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
	discord.NewHandler(ctx, services.Messages(), services.Commands()).Register(session)

	if err := session.Open(); err != nil {
		slog.ErrorContext(ctx, "failed to open discord gateway", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "discord gateway connected")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down bot...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := session.Close(); err != nil {
		slog.ErrorContext(ctx, "discord close error", "error", err)
	}
	if inline != nil {
		inline.Close()
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "bot shutdown complete")
}

const banner = `
  __ _ _ __ __ _ _ __ ___  _ __ ___   __ _ _ __  | |__   ___ | |_
 / _' | '__/ _' | '_ ' _ \| '_ ' _ \ / _' | '__| | '_ \ / _ \| __|
| (_| | | | (_| | | | | | | | | | | | (_| | |    | |_) | (_) | |_
 \__, |_|  \__,_|_| |_| |_|_| |_| |_|\__,_|_|    |_.__/ \___/ \__|
 |___/
`
