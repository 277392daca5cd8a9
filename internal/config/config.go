package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the gateway.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Webhook  WebhookConfig
	GitHub   GitHubConfig
	Debug    DebugConfig
	Notify   NotifyConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
	RequireTLS     bool
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// WebhookConfig configures inbound delivery authentication.
type WebhookConfig struct {
	Secret string
	// AllowUnsigned disables signature verification. Only honored in the
	// development environment; Load fails otherwise.
	AllowUnsigned bool
}

// GitHubConfig configures the origin-platform read API used for diff
// enrichment.
type GitHubConfig struct {
	Token               string
	APIBaseURL          string
	FetchTimeoutSeconds int
	MaxFiles            int
	MaxPatchBytes       int
}

// DebugConfig guards the operator-only debug endpoints.
type DebugConfig struct {
	APISecret       string
	TokenTTLMinutes int
}

// NotifyConfig configures the outbound change feed and delivery dedup.
type NotifyConfig struct {
	Channel         string
	DedupEnabled    bool
	DedupTTLSeconds int
}

// Load reads configuration from environment variables, applying defaults
// where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "flowlens-gateway"),
			Env:                   env,
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
			RequireTLS:     env == "production",
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Webhook: WebhookConfig{
			Secret:        os.Getenv("WEBHOOK_SECRET"),
			AllowUnsigned: getEnvAsBool("WEBHOOK_ALLOW_UNSIGNED", false),
		},
		GitHub: GitHubConfig{
			Token:               os.Getenv("GITHUB_TOKEN"),
			APIBaseURL:          os.Getenv("GITHUB_API_BASE_URL"),
			FetchTimeoutSeconds: getEnvAsInt("DIFF_FETCH_TIMEOUT_SECONDS", 5),
			MaxFiles:            getEnvAsInt("DIFF_MAX_FILES", 50),
			MaxPatchBytes:       getEnvAsInt("DIFF_MAX_PATCH_BYTES", 20000),
		},
		Debug: DebugConfig{
			APISecret:       getEnv("DEBUG_API_SECRET", "dev-secret"),
			TokenTTLMinutes: getEnvAsInt("DEBUG_TOKEN_TTL_MINUTES", 60),
		},
		Notify: NotifyConfig{
			Channel:         getEnv("NOTIFY_CHANNEL", "flowlens:events"),
			DedupEnabled:    getEnvAsBool("DEDUP_ENABLED", false),
			DedupTTLSeconds: getEnvAsInt("DEDUP_TTL_SECONDS", 86400),
		},
	}

	if cfg.Webhook.AllowUnsigned && env != "development" {
		return nil, fmt.Errorf("WEBHOOK_ALLOW_UNSIGNED is restricted to APP_ENV=development (got %q)", env)
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// IsProduction reports whether the deployment mode is production.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// EffectiveDSN returns the DSN with TLS enforced when the deployment mode
// requires it.
func (p PostgresConfig) EffectiveDSN() string {
	if !p.RequireTLS || p.DSN == "" || strings.Contains(p.DSN, "sslmode=") {
		return p.DSN
	}
	sep := "?"
	if strings.Contains(p.DSN, "?") {
		sep = "&"
	}
	return p.DSN + sep + "sslmode=require"
}

// FetchTimeout returns the bounded timeout for diff enrichment calls.
func (g GitHubConfig) FetchTimeout() time.Duration {
	if g.FetchTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(g.FetchTimeoutSeconds) * time.Second
}

// DedupTTL returns the retention window for seen delivery identifiers.
func (n NotifyConfig) DedupTTL() time.Duration {
	if n.DedupTTLSeconds <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(n.DedupTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
