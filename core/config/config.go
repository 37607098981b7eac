package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	"github.com/Samuelzila/grammar-police/core/db"
)

type Config struct {
	OTel         OTelConfig
	LanguageTool LanguageToolConfig
	AllowList    AllowListConfig
	Triage       TriageConfig
	Discord      DiscordConfig
	GitLab       GitLabConfig
	Pipeline     PipelineConfig
	Env          string
	Port         string
	AdminAPIKey  string
	DB           db.Config
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type LanguageToolConfig struct {
	BaseURL  string
	Language string
	Timeout  time.Duration
}

type AllowListBackend string

const (
	AllowListBackendFile     AllowListBackend = "file"
	AllowListBackendPostgres AllowListBackend = "postgres"
	AllowListBackendRedis    AllowListBackend = "redis"
)

type AllowListConfig struct {
	Backend  AllowListBackend
	Path     string // file backend
	RedisKey string // redis backend
}

type TriageConfig struct {
	RulesFile string // optional YAML file, see triage.LoadRules
}

type DiscordConfig struct {
	Token string
}

type GitLabConfig struct {
	BaseURL       string
	Token         string
	WebhookSecret string
}

type PipelineMode string

const (
	// PipelineModeQueue hands messages to the worker through a Redis stream.
	PipelineModeQueue PipelineMode = "queue"
	// PipelineModeInline runs the pipeline in the process that received the message.
	PipelineModeInline PipelineMode = "inline"
)

type PipelineConfig struct {
	Mode           PipelineMode
	RedisURL       string
	RedisStream    string
	RedisGroup     string
	RedisDLQStream string
	RedisConsumer  string
	Concurrency    int
	RunTimeout     time.Duration
	TraceHeader    string
}

type ServiceType string

const (
	ServiceTypeBot    ServiceType = "bot"
	ServiceTypeServer ServiceType = "server"
	ServiceTypeWorker ServiceType = "worker"
	ServiceTypeCLI    ServiceType = "cli"
)

// Load loads configuration from environment variables.
// In development, it loads from service-specific .env files first
// (.env.bot, .env.server, .env.worker) and falls back to .env.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("GRAMMAR_ENV", "development") == "development" {
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	cfg := Config{
		Env:         getEnv("GRAMMAR_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
		DB: db.Config{
			DSN:      getEnv("DATABASE_URL", ""),
			MaxConns: getEnvInt32("DB_MAX_CONNS", 4),
			MinConns: getEnvInt32("DB_MIN_CONNS", 1),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "grammar-police-"+string(serviceType)),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		LanguageTool: LanguageToolConfig{
			BaseURL:  getEnv("LANGUAGETOOL_URL", "http://localhost:8081"),
			Language: getEnv("LANGUAGETOOL_LANGUAGE", "fr-CA"),
			Timeout:  getEnvDuration("LANGUAGETOOL_TIMEOUT", 15*time.Second),
		},
		AllowList: AllowListConfig{
			Backend:  AllowListBackend(getEnv("ALLOWLIST_BACKEND", string(AllowListBackendFile))),
			Path:     getEnv("ALLOWLIST_PATH", "./authorized_users"),
			RedisKey: getEnv("ALLOWLIST_REDIS_KEY", "grammar_police:authorized_users"),
		},
		Triage: TriageConfig{
			RulesFile: getEnv("TRIAGE_RULES_FILE", ""),
		},
		Discord: DiscordConfig{
			Token: getEnv("TOKEN", ""),
		},
		GitLab: GitLabConfig{
			BaseURL:       getEnv("GITLAB_BASE_URL", ""),
			Token:         getEnv("GITLAB_TOKEN", ""),
			WebhookSecret: getEnv("GITLAB_WEBHOOK_SECRET", ""),
		},
		Pipeline: PipelineConfig{
			Mode:           PipelineMode(getEnv("PIPELINE_MODE", string(PipelineModeInline))),
			RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
			RedisStream:    getEnv("REDIS_STREAM", "grammar_messages"),
			RedisGroup:     getEnv("REDIS_CONSUMER_GROUP", "grammar_group"),
			RedisDLQStream: getEnv("REDIS_DLQ_STREAM", "grammar_messages_dlq"),
			RedisConsumer:  getEnv("REDIS_CONSUMER_NAME", string(serviceType)),
			Concurrency:    getEnvInt("PIPELINE_CONCURRENCY", 8),
			RunTimeout:     getEnvDuration("PIPELINE_RUN_TIMEOUT", 30*time.Second),
			TraceHeader:    getEnv("TRACE_HEADER_NAME", "X-Trace-ID"),
		},
	}

	if err := cfg.validate(serviceType); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate(serviceType ServiceType) error {
	tag, err := language.Parse(c.LanguageTool.Language)
	if err != nil {
		return fmt.Errorf("LANGUAGETOOL_LANGUAGE %q is not a valid language tag: %w", c.LanguageTool.Language, err)
	}
	if base, _ := tag.Base(); base.String() == "und" {
		return fmt.Errorf("LANGUAGETOOL_LANGUAGE %q has no base language", c.LanguageTool.Language)
	}

	switch c.AllowList.Backend {
	case AllowListBackendFile, AllowListBackendRedis:
	case AllowListBackendPostgres:
		if !c.DB.Enabled() {
			return fmt.Errorf("DATABASE_URL is required when ALLOWLIST_BACKEND is postgres")
		}
	default:
		return fmt.Errorf("unknown ALLOWLIST_BACKEND %q", c.AllowList.Backend)
	}

	switch c.Pipeline.Mode {
	case PipelineModeQueue, PipelineModeInline:
	default:
		return fmt.Errorf("unknown PIPELINE_MODE %q", c.Pipeline.Mode)
	}

	if serviceType == ServiceTypeBot && c.Discord.Token == "" {
		return fmt.Errorf("TOKEN is required")
	}

	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c GitLabConfig) Enabled() bool {
	return c.Token != "" && c.WebhookSecret != ""
}

func (c DiscordConfig) Enabled() bool {
	return c.Token != ""
}

func (c PipelineConfig) Queued() bool {
	return c.Mode == PipelineModeQueue
}

// NeedsRedis reports whether any configured component talks to Redis.
func (c Config) NeedsRedis() bool {
	return c.Pipeline.Queued() || c.AllowList.Backend == AllowListBackendRedis
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) int32 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
