package lattice

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/latticesearch/lattice/pkg/config"
	"github.com/latticesearch/lattice/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Lattice HTTP server",
	Long: `Start the Lattice HTTP server to provide REST API access to the search engine.

The server provides endpoints for:
- Hybrid, boolean, fuzzy, and adaptive search
- Strategy cost estimation
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServe,
}

var (
	serverHost string
	serverPort int
	serverMode string
	graphFile  string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server-specific flags
	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serveCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serveCmd.Flags().StringVar(&serverMode, "mode", "release", "Server mode (debug, release, test)")
	serveCmd.Flags().StringVar(&graphFile, "graph", "", "YAML graph file to seed the store with")

	// Store flags
	serveCmd.Flags().String("store-driver", "memory", "Graph store driver (memory, badger)")
	serveCmd.Flags().String("store-path", "./lattice_db", "Badger data directory")

	// Embedding flags
	serveCmd.Flags().String("embedding-provider", "none", "Embedding provider (none, openai, embedeverything)")
	serveCmd.Flags().String("embedding-model", "", "Embedding model")
	serveCmd.Flags().String("embedding-api-key", "", "Embedding API key")
	serveCmd.Flags().String("embedding-base-url", "", "Embedding base URL")

	// Telemetry flags
	serveCmd.Flags().String("telemetry-parquet-path", "", "Directory for parquet error telemetry")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	overrideConfigWithFlags(cmd, cfg)

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}

	logger, flush, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer flush()

	engine, cleanup, err := buildEngine(cfg, graphFile, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := server.New(cfg, engine)
	srv.Setup()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		fmt.Println("Server stopped gracefully")
		return nil
	}
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	// Server flags
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	// Store flags
	if cmd.Flags().Changed("store-driver") {
		cfg.Store.Driver, _ = cmd.Flags().GetString("store-driver")
	}
	if cmd.Flags().Changed("store-path") {
		cfg.Store.Path, _ = cmd.Flags().GetString("store-path")
	}

	// Embedding flags
	if cmd.Flags().Changed("embedding-provider") {
		cfg.Embedding.Provider, _ = cmd.Flags().GetString("embedding-provider")
	}
	if cmd.Flags().Changed("embedding-model") {
		cfg.Embedding.Model, _ = cmd.Flags().GetString("embedding-model")
	}
	if cmd.Flags().Changed("embedding-api-key") {
		cfg.Embedding.APIKey, _ = cmd.Flags().GetString("embedding-api-key")
	}
	if cmd.Flags().Changed("embedding-base-url") {
		cfg.Embedding.BaseURL, _ = cmd.Flags().GetString("embedding-base-url")
	}

	// Telemetry flags
	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
	}
}
