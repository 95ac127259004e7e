// ABOUTME: Shared engine construction for CLI commands
// ABOUTME: Wires config, storage, model client, tools, and retrieval together
package commands

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/akshith/chatkit/internal/config"
	"github.com/akshith/chatkit/internal/engine"
	"github.com/akshith/chatkit/internal/llm"
	"github.com/akshith/chatkit/internal/log"
	"github.com/akshith/chatkit/internal/retrieval"
	"github.com/akshith/chatkit/internal/storage"
	"github.com/akshith/chatkit/internal/tools"
)

// app bundles everything a command needs. Close releases the store.
type app struct {
	cfg    *config.Config
	engine *engine.Engine
	store  *storage.Store
	logger log.Logger
}

func (a *app) Close() error {
	return a.store.Close()
}

// newApp loads configuration and assembles the full engine stack.
func newApp() (*app, error) {
	// Load .env for API keys
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	logger := newLogger()

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening conversation store: %w", err)
	}

	client, err := llm.NewClientWithConfig(&llm.ClientConfig{
		APIKey:         cfg.OpenAIKey,
		ChatModel:      cfg.ChatModel,
		EmbeddingModel: cfg.EmbeddingModel,
		SystemPrompt:   llm.DefaultSystemPrompt,
		Timeout:        cfg.Timeout,
		MaxRetries:     cfg.MaxRetries,
		RetryDelay:     cfg.RetryDelay,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("initializing model client: %w", err)
	}

	manager := retrieval.NewManager(client, retrieval.Chunker{
		Size:    cfg.ChunkSize,
		Overlap: cfg.ChunkOverlap,
	}, logger)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	registry := tools.NewRegistry(logger)
	for _, tool := range []tools.Tool{
		tools.Calculator{},
		tools.StockPrice{BaseURL: cfg.StockQuoteURL, Client: httpClient},
		tools.Weather{BaseURL: cfg.WeatherURL, Client: httpClient},
		tools.WebSearch{BaseURL: cfg.SearchURL, Client: httpClient},
		tools.RetrieveDocument{Retriever: manager, TopK: cfg.RetrievalK},
	} {
		if err := registry.Register(tool); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("registering tool: %w", err)
		}
	}

	eng := engine.New(store, client, registry, manager, engine.Options{
		MaxToolRounds: cfg.MaxToolRounds,
		Logger:        logger,
	})

	return &app{cfg: cfg, engine: eng, store: store, logger: logger}, nil
}

// newLogger builds the CLI logger honoring --verbose and --quiet.
func newLogger() log.Logger {
	if quiet {
		return log.NewNop()
	}
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return log.NewWithWriter(os.Stderr, log.Config{Level: level})
}
