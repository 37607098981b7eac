// Package bootstrap assembles the pipeline and its backends from configuration.
// Each binary opens only the connections its configuration asks for.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"

	"github.com/Samuelzila/grammar-police/core/config"
	"github.com/Samuelzila/grammar-police/core/db"
	"github.com/Samuelzila/grammar-police/internal/allowlist"
	"github.com/Samuelzila/grammar-police/internal/chat"
	"github.com/Samuelzila/grammar-police/internal/languagetool"
	"github.com/Samuelzila/grammar-police/internal/model"
	"github.com/Samuelzila/grammar-police/internal/pipeline"
	"github.com/Samuelzila/grammar-police/internal/triage"
)

// Resources holds the long-lived connections shared by a process.
type Resources struct {
	Redis *redis.Client
	DB    *db.DB

	closers []io.Closer
}

// Open connects to Redis and Postgres when cfg needs them.
func Open(ctx context.Context, cfg config.Config) (*Resources, error) {
	res := &Resources{}

	if cfg.NeedsRedis() {
		client, err := OpenRedis(ctx, cfg.Pipeline.RedisURL)
		if err != nil {
			return nil, err
		}
		res.Redis = client
		res.closers = append(res.closers, client)
		slog.InfoContext(ctx, "redis connected")
	}

	if cfg.AllowList.Backend == config.AllowListBackendPostgres {
		database, err := db.New(ctx, cfg.DB)
		if err != nil {
			res.Close()
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		res.DB = database
		slog.InfoContext(ctx, "database connected")
	}

	return res, nil
}

func (r *Resources) Close() {
	for _, c := range r.closers {
		_ = c.Close()
	}
	if r.DB != nil {
		r.DB.Close()
	}
}

func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}

// NewAllowList picks the allow-list backend named by cfg.
func NewAllowList(cfg config.AllowListConfig, res *Resources) (*allowlist.Store, error) {
	switch cfg.Backend {
	case config.AllowListBackendFile, "":
		return allowlist.New(allowlist.NewFileBackend(cfg.Path)), nil
	case config.AllowListBackendRedis:
		if res == nil || res.Redis == nil {
			return nil, errors.New("redis allow-list backend needs a redis connection")
		}
		return allowlist.New(allowlist.NewRedisBackend(res.Redis, cfg.RedisKey)), nil
	case config.AllowListBackendPostgres:
		if res == nil || res.DB == nil {
			return nil, errors.New("postgres allow-list backend needs a database connection")
		}
		return allowlist.New(allowlist.NewPostgresBackend(res.DB)), nil
	default:
		return nil, fmt.Errorf("unknown allow-list backend %q", cfg.Backend)
	}
}

// NewTriager loads the triage rules. A configured file that does not exist falls
// back to the built-in rules.
func NewTriager(ctx context.Context, cfg config.TriageConfig) (*triage.Triager, error) {
	rules, err := triage.LoadRules(cfg.RulesFile)
	if errors.Is(err, triage.ErrRulesNotFound) {
		slog.WarnContext(ctx, "triage rules file not found, using defaults", "path", cfg.RulesFile)
		rules = triage.DefaultRules()
	} else if err != nil {
		return nil, err
	}
	return triage.New(rules), nil
}

func NewAnalyzer(cfg config.LanguageToolConfig) *languagetool.Client {
	return languagetool.NewClient(languagetool.Config{
		BaseURL:  cfg.BaseURL,
		Language: cfg.Language,
		Timeout:  cfg.Timeout,
	}, nil)
}

// NewReplier registers a replier for every platform that has credentials. The
// Discord session only needs its REST half here; the gateway is opened by the bot.
func NewReplier(cfg config.Config, session *discordgo.Session) (*chat.Mux, error) {
	mux := chat.NewMux()

	if session == nil && cfg.Discord.Enabled() {
		s, err := discordgo.New("Bot " + cfg.Discord.Token)
		if err != nil {
			return nil, fmt.Errorf("creating discord session: %w", err)
		}
		session = s
	}
	if session != nil {
		mux.Register(model.PlatformDiscord, chat.NewDiscordReplier(session))
	}

	if cfg.GitLab.Enabled() {
		client, err := chat.NewGitLabClient(cfg.GitLab.BaseURL, cfg.GitLab.Token)
		if err != nil {
			return nil, fmt.Errorf("creating gitlab client: %w", err)
		}
		mux.Register(model.PlatformGitLab, chat.NewGitLabReplier(client))
	}

	return mux, nil
}

// NewPipeline builds the whole grammar pipeline.
func NewPipeline(ctx context.Context, cfg config.Config, store *allowlist.Store, replier pipeline.Replier) (*pipeline.Pipeline, error) {
	triager, err := NewTriager(ctx, cfg.Triage)
	if err != nil {
		return nil, err
	}
	return pipeline.New(store, NewAnalyzer(cfg.LanguageTool), triager, replier), nil
}
