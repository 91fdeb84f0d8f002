package config

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
)

// Config holds runtime configuration read from the environment.
type Config struct {
	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`

	// Data layout: DATA_DIR holds the state database and the materialized
	// chunk files directory.
	DataDir string `env:"DATA_DIR" envDefault:".litcorpus"`

	// Store
	StoreProvider string `env:"STORE_PROVIDER" envDefault:"sqlite" validate:"oneof=sqlite postgres"`
	DBURL         string `env:"DB_URL"` // required when STORE_PROVIDER=postgres

	// Chunking defaults for per-ingest materialization.
	ChunkSize    int  `env:"CHUNK_SIZE" envDefault:"150000" validate:"gt=0"`
	ChunkOverlap int  `env:"CHUNK_OVERLAP" envDefault:"2000" validate:"gte=0,ltfield=ChunkSize"`
	WriteChunks  bool `env:"WRITE_CHUNKS" envDefault:"true"`

	// Retrieval
	TopTerms int `env:"TOP_TERMS" envDefault:"20" validate:"gt=0"`

	// Cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"none" validate:"oneof=none redis"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// Events
	EventsProvider string `env:"EVENTS_PROVIDER" envDefault:"none" validate:"oneof=none nats"`
	NATSURL        string `env:"NATS_URL"` // required when EVENTS_PROVIDER=nats

	// HTTP query API (serve command)
	Port int `env:"PORT" envDefault:"8080" validate:"gt=0,lte=65535"`
}

// ChunksDir is where materialized chunk files are written.
func (c Config) ChunksDir() string {
	return filepath.Join(c.DataDir, "chunks")
}

// Load reads configuration from environment variables and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
