package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	UsersFile      string `envconfig:"USERS_FILE" default:"users.json"`
	PriceCacheFile string `envconfig:"PRICE_CACHE_FILE" default:"price_cache.json"`
	GardenFile     string `envconfig:"GARDEN_FILE" default:"garden.json"`

	// file|postgres; postgres requires DATABASE_URL.
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"file"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`

	// file|redis; redis requires REDIS_ADDR.
	CacheBackend  string `envconfig:"CACHE_BACKEND" default:"file"`
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// OPENAI_TOKEN is optional; without it the estimator runs on the
	// static fallback only.
	OpenAIToken   string `envconfig:"OPENAI_TOKEN"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	OpenAIModel   string `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`

	EstimateTimeout time.Duration `envconfig:"ESTIMATE_TIMEOUT" default:"10s"`
	NotifyInterval  time.Duration `envconfig:"NOTIFY_POLL_INTERVAL" default:"1h"`
	ScannerInterval time.Duration `envconfig:"SCANNER_POLL_INTERVAL" default:"1s"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// FromEnv loads configuration from environment variables.
func FromEnv() (*Config, error) {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return nil, err
	}
	return c, nil
}
