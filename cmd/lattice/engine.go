package lattice

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/latticesearch/lattice"
	"github.com/latticesearch/lattice/pkg/alert"
	"github.com/latticesearch/lattice/pkg/config"
	"github.com/latticesearch/lattice/pkg/embedder"
	"github.com/latticesearch/lattice/pkg/store"
	"github.com/latticesearch/lattice/pkg/telemetry"
)

// newLogger builds the process logger from config. When a telemetry path is
// configured, error records are mirrored to parquet files there. The
// returned flush func drains any buffered telemetry on shutdown.
func newLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Log.Level)}
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	flush := func() {}
	if cfg.Telemetry.ParquetPath != "" {
		ph, err := telemetry.NewParquetHandler(handler, cfg.Telemetry.ParquetPath)
		if err != nil {
			return nil, nil, fmt.Errorf("telemetry handler: %w", err)
		}
		handler = ph
		flush = func() { _ = ph.Flush() }
	}
	return slog.New(handler), flush, nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openStore opens the configured graph store, seeding it from a YAML graph
// file when one is given.
func openStore(cfg *config.Config, graphPath string) (store.GraphStore, error) {
	switch cfg.Store.Driver {
	case "", "memory":
		if graphPath == "" {
			return store.NewMemoryStore(), nil
		}
		g, err := store.LoadGraphFile(graphPath)
		if err != nil {
			return nil, err
		}
		return store.NewMemoryStoreFromGraph(g), nil

	case "badger":
		bs, err := store.OpenBadgerStore(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		if graphPath != "" {
			if err := seedBadger(bs, graphPath); err != nil {
				bs.Close()
				return nil, err
			}
		}
		return bs, nil

	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func seedBadger(bs *store.BadgerStore, graphPath string) error {
	g, err := store.LoadGraphFile(graphPath)
	if err != nil {
		return err
	}
	ctx := context.Background()
	for _, e := range g.Entities {
		if err := bs.PutEntity(ctx, e); err != nil {
			return fmt.Errorf("seed entity %q: %w", e.Name, err)
		}
	}
	for _, r := range g.Relations {
		if err := bs.AddRelation(ctx, r); err != nil {
			return fmt.Errorf("seed relation %s-%s: %w", r.Source, r.Target, err)
		}
	}
	return nil
}

// newEmbeddingClient builds the embedding provider, or returns nil when
// none is configured so the engine runs lexical and symbolic layers only.
func newEmbeddingClient(cfg *config.Config) (embedder.Client, error) {
	var client embedder.Client
	switch cfg.Embedding.Provider {
	case "", "none":
		return nil, nil
	case "openai":
		if cfg.Embedding.APIKey == "" {
			return nil, fmt.Errorf("openai embedding provider requires an API key")
		}
		client = embedder.NewOpenAIEmbedder(cfg.Embedding.APIKey, embedder.Config{
			Model:   cfg.Embedding.Model,
			BaseURL: cfg.Embedding.BaseURL,
		})
	case "embedeverything":
		var err error
		client, err = embedder.NewEmbedEverythingClient(embedder.Config{
			Model: cfg.Embedding.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("embedeverything client: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}

	if cfg.CircuitBreaker.Enabled {
		var alerter alert.Alerter = &alert.NoOpAlerter{}
		if cfg.Alert.Enabled {
			alerter = alert.NewEmailAlerter(cfg.Alert)
		}
		client = embedder.NewCircuitBreakerClient(client, cfg.CircuitBreaker, alerter, "embedding")
	}
	return client, nil
}

// buildEngine wires store, embedder, and engine from config. The returned
// cleanup func closes the engine and the store.
func buildEngine(cfg *config.Config, graphPath string, logger *slog.Logger) (*lattice.Engine, func(), error) {
	st, err := openStore(cfg, graphPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	client, err := newEmbeddingClient(cfg)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	engine, err := lattice.New(st, client, lattice.ConfigFromApp(cfg), logger)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("create engine: %w", err)
	}

	cleanup := func() {
		_ = engine.Close()
		_ = st.Close()
	}
	return engine, cleanup, nil
}
