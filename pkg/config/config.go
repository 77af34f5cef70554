package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

type Config struct {
	Env string

	Log      LogConfig
	Client   ClientConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	JWT      JWTConfig
	Crawler  CrawlerConfig
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

// ClientConfig drives the results client, the CLI and the terminal UI.
type ClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	AccountFile    string
	RecentSessions int
}

// ServerConfig configures the development API server.
type ServerConfig struct {
	Port           int
	APIPrefix      string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig toggles the Redis backed results cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// CrawlerConfig tunes the refresh queue of the development server.
type CrawlerConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
		File:   v.GetString("LOG_FILE"),
	}

	recent := v.GetInt("RECENT_SESSIONS")
	if recent <= 0 {
		recent = 6
	}
	cfg.Client = ClientConfig{
		BaseURL:        v.GetString("API_BASE_URL"),
		Timeout:        parseDuration(v.GetString("HTTP_TIMEOUT"), 15*time.Second),
		AccountFile:    expandHome(v.GetString("ACCOUNT_FILE")),
		RecentSessions: recent,
	}

	cfg.Server = ServerConfig{
		Port:           v.GetInt("PORT"),
		APIPrefix:      v.GetString("API_PREFIX"),
		AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS")),
	}

	cfg.Database = DatabaseConfig{
		Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_RESULTS_CACHE"),
		TTL:     parseDuration(v.GetString("RESULTS_CACHE_TTL"), 5*time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 30*24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.Crawler = CrawlerConfig{
		Workers:    v.GetInt("CRAWLER_WORKERS"),
		MaxRetries: v.GetInt("CRAWLER_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("CRAWLER_RETRY_DELAY"), 5*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("LOG_FILE", "")

	v.SetDefault("API_BASE_URL", "http://results.jdupserver.com/api/v1/")
	v.SetDefault("HTTP_TIMEOUT", "15s")
	v.SetDefault("ACCOUNT_FILE", "~/.config/results/account.yaml")
	v.SetDefault("RECENT_SESSIONS", 6)

	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("ALLOWED_ORIGINS", "")

	v.SetDefault("DB_DRIVER", DriverMemory)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "results")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ENABLE_RESULTS_CACHE", false)
	v.SetDefault("RESULTS_CACHE_TTL", "5m")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "720h")
	v.SetDefault("JWT_ISSUER", "results-devserver")

	v.SetDefault("CRAWLER_WORKERS", 1)
	v.SetDefault("CRAWLER_MAX_RETRIES", 3)
	v.SetDefault("CRAWLER_RETRY_DELAY", "5s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
