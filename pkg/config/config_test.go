package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SERVER_HOST", "")
	t.Setenv("SERVER_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 1.0, cfg.Search.Weights.Lexical)
	assert.Equal(t, 1.2, cfg.Search.BM25.K1)
	assert.Equal(t, 0.75, cfg.Search.BM25.B)
	assert.Equal(t, 0.7, cfg.Search.AdequacyThreshold)
	assert.Equal(t, 0.7, cfg.Search.FuzzyThreshold)
	assert.Equal(t, "none", cfg.Embedding.Provider)
	assert.False(t, cfg.CircuitBreaker.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LATTICE_EMBEDDING_PROVIDER", "openai")
	t.Setenv("LATTICE_STORE_DRIVER", "badger")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, "badger", cfg.Store.Driver)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadViperSettingsWin(t *testing.T) {
	viper.Reset()
	t.Setenv("OPENAI_API_KEY", "")
	viper.Set("search.weights.semantic", 2.5)
	viper.Set("search.pool_size", 8)
	defer viper.Reset()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.Search.Weights.Semantic)
	assert.Equal(t, 8, cfg.Search.PoolSize)
}
