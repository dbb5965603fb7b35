// Constraintd turns natural-language sports-league scheduling requests into
// typed, persisted scheduling constraints.
//
// The daemon exposes an HTTP API: POST /api/v1/chat/structured_output
// accepts a chat conversation, classifies each constraint fragment into a
// category via embeddings, extracts a typed constraint via a generative
// model, and persists the aggregate.
//
// Configuration is loaded from a YAML file and environment variables. See
// internal/config for details.
//
// Usage:
//
//	# Start with defaults
//	constraintd
//
//	# Configure via file and environment
//	EXTRACTION_API_KEY=sk-... constraintd -config /etc/constraintd/config.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/leaguelab/constraintd/internal/classifier"
	"github.com/leaguelab/constraintd/internal/config"
	"github.com/leaguelab/constraintd/internal/embeddings"
	"github.com/leaguelab/constraintd/internal/extraction"
	httpserver "github.com/leaguelab/constraintd/internal/http"
	"github.com/leaguelab/constraintd/internal/logging"
	"github.com/leaguelab/constraintd/internal/pipeline"
	"github.com/leaguelab/constraintd/internal/services"
	"github.com/leaguelab/constraintd/internal/store"
	"github.com/leaguelab/constraintd/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  constraintd           Start the constraintd daemon\n")
			fmt.Fprintf(os.Stderr, "  constraintd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("constraintd\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the constraintd server and blocks until the context is
// cancelled. Returns http.ErrServerClosed on graceful shutdown.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logging.Sync(logger)

	logger.Info("starting constraintd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("service", cfg.Observability.ServiceName),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	tel, err := telemetry.New(ctx, cfg.Observability)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	embedder, err := embeddings.NewProvider(embeddings.Config{
		Provider: cfg.Embeddings.Provider,
		BaseURL:  cfg.Embeddings.BaseURL,
		Model:    cfg.Embeddings.Model,
		APIKey:   cfg.Embeddings.APIKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}

	extractor, err := extraction.NewExtractor(extraction.Config{
		Provider:   cfg.Extraction.Provider,
		Model:      cfg.Extraction.Model,
		APIKey:     cfg.Extraction.APIKey,
		BaseURL:    cfg.Extraction.BaseURL,
		Timeout:    cfg.Extraction.Timeout,
		MaxRetries: cfg.Extraction.MaxRetries,
	})
	if err != nil {
		return fmt.Errorf("failed to create extractor: %w", err)
	}

	st, err := store.NewSQLiteStore(store.Config{Path: cfg.Store.Path}, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("store close failed", zap.Error(err))
		}
	}()

	cls, err := classifier.New(embedder, logger)
	if err != nil {
		return fmt.Errorf("failed to create classifier: %w", err)
	}
	pipe := pipeline.New(cls, extractor, st, logger)

	registry := services.NewRegistry(services.Options{
		Embedder:  embedder,
		Extractor: extractor,
		Pipeline:  pipe,
		Store:     st,
	})

	server, err := httpserver.NewServer(registry.Pipeline(), registry.Store(), logger, &httpserver.Config{
		Host: "0.0.0.0",
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return <-errCh
}
