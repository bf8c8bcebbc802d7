package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env string

	API       APIConfig
	Session   SessionConfig
	Downloads DownloadsConfig
	Log       LogConfig
	Export    ExportConfig
}

type APIConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	DefaultPerPage int
}

type SessionConfig struct {
	CredentialsFile string
	TokenTTL        time.Duration
}

type DownloadsConfig struct {
	Dir string
}

type LogConfig struct {
	Level  string
	Format string
}

// ExportConfig tunes the batch export worker queue.
type ExportConfig struct {
	WorkerConcurrency int
	WorkerRetries     int
	RetryDelay        time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.API = APIConfig{
		BaseURL:        v.GetString("API_BASE_URL"),
		Timeout:        parseDuration(v.GetString("API_TIMEOUT"), 30*time.Second),
		RateLimitRPS:   v.GetFloat64("API_RATE_LIMIT_RPS"),
		RateLimitBurst: v.GetInt("API_RATE_LIMIT_BURST"),
		DefaultPerPage: v.GetInt("API_DEFAULT_PER_PAGE"),
	}

	cfg.Session = SessionConfig{
		CredentialsFile: v.GetString("SESSION_CREDENTIALS_FILE"),
		TokenTTL:        parseDuration(v.GetString("SESSION_TOKEN_TTL"), 7*24*time.Hour),
	}

	cfg.Downloads = DownloadsConfig{
		Dir: v.GetString("DOWNLOADS_DIR"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Export = ExportConfig{
		WorkerConcurrency: v.GetInt("EXPORT_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("EXPORT_WORKER_RETRIES"),
		RetryDelay:        parseDuration(v.GetString("EXPORT_RETRY_DELAY"), time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("API_BASE_URL", "https://hasad-api.terzoomedia.com/api/v1")
	v.SetDefault("API_TIMEOUT", "30s")
	v.SetDefault("API_RATE_LIMIT_RPS", 0)
	v.SetDefault("API_RATE_LIMIT_BURST", 1)
	v.SetDefault("API_DEFAULT_PER_PAGE", 15)

	v.SetDefault("SESSION_CREDENTIALS_FILE", "")
	v.SetDefault("SESSION_TOKEN_TTL", "168h")

	v.SetDefault("DOWNLOADS_DIR", "./downloads")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("EXPORT_WORKER_CONCURRENCY", 2)
	v.SetDefault("EXPORT_WORKER_RETRIES", 3)
	v.SetDefault("EXPORT_RETRY_DELAY", "1s")
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
