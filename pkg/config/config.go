package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Store configuration
	Store StoreConfig `mapstructure:"store"`

	// Search configuration
	Search SearchConfig `mapstructure:"search"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Embedding configuration
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// Alert configuration
	Alert AlertConfig `mapstructure:"alert"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// AlertConfig holds configuration for alerting
type AlertConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	SMTPHost string   `mapstructure:"smtp_host"`
	SMTPPort int      `mapstructure:"smtp_port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// StoreConfig holds graph store configuration
type StoreConfig struct {
	Driver string `mapstructure:"driver"` // memory, badger
	Path   string `mapstructure:"path"`   // badger data directory
}

// SearchConfig holds the tunables of the ranking pipeline
type SearchConfig struct {
	// Weights are the hybrid fusion weights, normalized before use
	Weights WeightsConfig `mapstructure:"weights"`

	// BM25 parameters
	BM25 BM25Config `mapstructure:"bm25"`

	// KeepStopwords disables stopword filtering in the inverted index
	KeepStopwords bool `mapstructure:"keep_stopwords"`

	// AdequacyThreshold stops the planner once cleared (0 means default)
	AdequacyThreshold float64 `mapstructure:"adequacy_threshold"`

	// FuzzyThreshold is the minimum edit-distance similarity (0 means default)
	FuzzyThreshold float64 `mapstructure:"fuzzy_threshold"`

	// PoolSize is the worker count for parallel fuzzy scoring (0 disables)
	PoolSize int `mapstructure:"pool_size"`

	// Limit is the default result count cap (0 means unlimited)
	Limit int `mapstructure:"limit"`
}

// WeightsConfig holds the per-layer fusion weights
type WeightsConfig struct {
	Semantic float64 `mapstructure:"semantic"`
	Lexical  float64 `mapstructure:"lexical"`
	Symbolic float64 `mapstructure:"symbolic"`
}

// BM25Config holds the BM25 tuning parameters
type BM25Config struct {
	K1 float64 `mapstructure:"k1"`
	B  float64 `mapstructure:"b"`
}

// EmbeddingConfig holds embedding configuration
type EmbeddingConfig struct {
	Provider string `mapstructure:"provider"` // openai, embedeverything, none
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")

	// Store defaults
	viper.SetDefault("store.driver", "memory")
	viper.SetDefault("store.path", "./lattice_db")

	// Search defaults
	viper.SetDefault("search.weights.semantic", 1.0)
	viper.SetDefault("search.weights.lexical", 1.0)
	viper.SetDefault("search.weights.symbolic", 1.0)
	viper.SetDefault("search.bm25.k1", 1.2)
	viper.SetDefault("search.bm25.b", 0.75)
	viper.SetDefault("search.keep_stopwords", false)
	viper.SetDefault("search.adequacy_threshold", 0.7)
	viper.SetDefault("search.fuzzy_threshold", 0.7)
	viper.SetDefault("search.pool_size", 4)
	viper.SetDefault("search.limit", 0)

	// Embedding defaults
	viper.SetDefault("embedding.provider", "none")
	viper.SetDefault("embedding.model", "all-MiniLM-L6-v2")

	// Circuit breaker defaults
	viper.SetDefault("circuit_breaker.enabled", false)
	viper.SetDefault("circuit_breaker.max_requests", 1)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 30)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)

	// Telemetry defaults
	home, err := os.UserHomeDir()
	if err == nil {
		defaultPath := fmt.Sprintf("%s/.lattice/telemetry", home)
		viper.SetDefault("telemetry.parquet_path", defaultPath)
	}
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Embedding.APIKey = apiKey
	}
	if provider := os.Getenv("LATTICE_EMBEDDING_PROVIDER"); provider != "" {
		config.Embedding.Provider = provider
	}
	if model := os.Getenv("LATTICE_EMBEDDING_MODEL"); model != "" {
		config.Embedding.Model = model
	}

	// Store settings
	if driver := os.Getenv("LATTICE_STORE_DRIVER"); driver != "" {
		config.Store.Driver = driver
	}
	if path := os.Getenv("LATTICE_STORE_PATH"); path != "" {
		config.Store.Path = path
	}

	// Server settings
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	// Telemetry settings
	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}
