// Package app wires configuration, logging, storage, extraction and the
// retrieval surface into one dependency bundle for the CLI and the HTTP API.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"litcorpus/internal/buffer"
	"litcorpus/internal/cache"
	"litcorpus/internal/config"
	"litcorpus/internal/corpus"
	"litcorpus/internal/events"
	"litcorpus/internal/extract"
	"litcorpus/internal/index"
	"litcorpus/internal/logger"
	"litcorpus/internal/store"
)

// Deps bundles common runtime dependencies.
type Deps struct {
	Config  config.Config
	Log     *slog.Logger
	Store   store.Store
	Manager *corpus.Manager
	Index   *index.Index
	Buffers *buffer.Log
	Cache   cache.Cache
	Events  events.Publisher
}

// Build loads env and config, opens the store, restores the corpus from it
// and wires the query surface. The state record is loaded eagerly so a
// corrupt record fails here, before any command runs against it.
func Build(ctx context.Context) (Deps, error) {
	return build(ctx, true)
}

// BuildBare wires everything except the corpus restore. Reset needs this: a
// corrupt state record must still be clearable, and restoring it first would
// fail.
func BuildBare(ctx context.Context) (Deps, error) {
	return build(ctx, false)
}

func build(ctx context.Context, restore bool) (Deps, error) {
	// A .env file is optional for a local CLI.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return Deps{}, err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	st, err := buildStore(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	qc, err := buildCache(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize cache: %w", err)
	}
	pub, err := buildEvents(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize events: %w", err)
	}

	var snap store.Snapshot
	if restore {
		if snap, err = st.Load(ctx); err != nil {
			return Deps{}, err
		}
	}

	mgr := corpus.NewManager(log, st, extract.NewPDF(), pub, snap.Documents, corpus.Options{
		ChunksDir:    cfg.ChunksDir(),
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		WriteChunks:  cfg.WriteChunks,
	})

	return Deps{
		Config:  cfg,
		Log:     log,
		Store:   st,
		Manager: mgr,
		Index:   index.New(log, mgr, qc, cfg.TopTerms),
		Buffers: buffer.NewLog(st),
		Cache:   qc,
		Events:  pub,
	}, nil
}

// Close releases held connections.
func (d Deps) Close() {
	if c, ok := d.Events.(io.Closer); ok {
		_ = c.Close()
	}
	if d.Cache != nil {
		_ = d.Cache.Close()
	}
	if d.Store != nil {
		_ = d.Store.Close()
	}
}

func buildStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreProvider {
	case "sqlite":
		st, err := store.NewSQLite(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		log.Debug("using SQLite store", "path", st.Path())
		return st, nil
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when STORE_PROVIDER=postgres")
		}
		st, err := store.NewPostgres(cfg.DBURL)
		if err != nil {
			return nil, err
		}
		log.Debug("using Postgres store")
		return st, nil
	default:
		return nil, fmt.Errorf("invalid STORE_PROVIDER: %s (valid options: sqlite, postgres)", cfg.StoreProvider)
	}
}

func buildCache(cfg config.Config, log *slog.Logger) (cache.Cache, error) {
	switch cfg.CacheProvider {
	case "redis":
		c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		log.Debug("using Redis cache", "addr", cfg.RedisAddr)
		return c, nil
	default:
		return cache.NewNoOpCache(), nil
	}
}

func buildEvents(cfg config.Config, log *slog.Logger) (events.Publisher, error) {
	switch cfg.EventsProvider {
	case "nats":
		if cfg.NATSURL == "" {
			return nil, fmt.Errorf("NATS_URL is required when EVENTS_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Debug("publishing events to NATS", "url", cfg.NATSURL)
		return events.NewNATS(log, nc), nil
	default:
		return events.NewNoop(), nil
	}
}
