package config

import (
	"log/slog"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration for the gateway and the worker.
type Config struct {
	// Server
	Port       int    `env:"PORT" envDefault:"8080"`
	HealthPort int    `env:"HEALTH_PORT" envDefault:"8081"` // worker health/metrics listener
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	MaxBodySize   int64 `env:"MAX_BODY_SIZE" envDefault:"1048576"`     // 1MB in bytes
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"` // 10MB in bytes

	// Store
	StoreProvider       string `env:"STORE_PROVIDER" envDefault:"postgres"`
	DBURL               string `env:"DB_URL"`
	EmbeddingDimensions int    `env:"EMBEDDING_DIMENSIONS" envDefault:"1536"`

	// Queue
	QueueProvider string `env:"QUEUE_PROVIDER" envDefault:"nats"`
	QueueURL      string `env:"QUEUE_URL"`

	// Embeddings
	EmbedderProvider  string  `env:"EMBEDDER_PROVIDER" envDefault:"openai"`
	OpenAIKey         string  `env:"OPENAI_API_KEY"`
	EmbeddingModel    string  `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingRPS      float64 `env:"EMBEDDING_RPS" envDefault:"5"`
	EmbeddingAttempts int     `env:"EMBEDDING_ATTEMPTS" envDefault:"3"`
	BatchSize         int     `env:"EMBEDDING_BATCH_SIZE" envDefault:"64"`
	BatchConcurrency  int     `env:"EMBEDDING_CONCURRENCY" envDefault:"4"`

	// Cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"redis"` // "redis" or "none"
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"86400"` // seconds
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
