// ABOUTME: Centralized configuration for the chat engine and CLI
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration for the assistant.
type Config struct {
	// OpenAI settings
	OpenAIKey      string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	// Storage settings
	DBPath string

	// Orchestration settings
	MaxToolRounds int

	// Retrieval settings
	ChunkSize    int
	ChunkOverlap int
	RetrievalK   int

	// Tool endpoints (overridable for testing)
	StockQuoteURL string
	WeatherURL    string
	SearchURL     string
	HTTPTimeout   time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		ChatModel:      getEnv("CHATKIT_MODEL", "gpt-4o-mini"),
		EmbeddingModel: getEnv("CHATKIT_EMBEDDING_MODEL", "text-embedding-3-small"),
		Timeout:        getEnvDuration("OPENAI_TIMEOUT", 60*time.Second),
		MaxRetries:     getEnvInt("OPENAI_MAX_RETRIES", 3),
		RetryDelay:     getEnvDuration("OPENAI_RETRY_DELAY", 2*time.Second),
		DBPath:         getEnv("CHATKIT_DB", DefaultDBPath()),
		MaxToolRounds:  getEnvInt("CHATKIT_MAX_TOOL_ROUNDS", 25),
		ChunkSize:      getEnvInt("CHATKIT_CHUNK_SIZE", 1000),
		ChunkOverlap:   getEnvInt("CHATKIT_CHUNK_OVERLAP", 200),
		RetrievalK:     getEnvInt("CHATKIT_RETRIEVAL_K", 3),
		StockQuoteURL:  getEnv("CHATKIT_STOCK_URL", "https://stooq.com/q/l/"),
		WeatherURL:     getEnv("CHATKIT_WEATHER_URL", "https://wttr.in"),
		SearchURL:      getEnv("CHATKIT_SEARCH_URL", "https://api.duckduckgo.com"),
		HTTPTimeout:    getEnvDuration("CHATKIT_HTTP_TIMEOUT", 10*time.Second),
	}

	return cfg, cfg.Validate()
}

// Validate checks configuration bounds.
func (c *Config) Validate() error {
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.MaxToolRounds < 1 || c.MaxToolRounds > 100 {
		return fmt.Errorf("CHATKIT_MAX_TOOL_ROUNDS must be 1-100, got %d", c.MaxToolRounds)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("CHATKIT_CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHATKIT_CHUNK_OVERLAP must be in [0, chunk size), got %d", c.ChunkOverlap)
	}
	if c.RetrievalK < 1 {
		return fmt.Errorf("CHATKIT_RETRIEVAL_K must be positive, got %d", c.RetrievalK)
	}
	return nil
}

// DefaultDataDir returns the data directory following the XDG spec.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".local", "share", "chatkit")
		}
		dataHome = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataHome, "chatkit")
}

// DefaultDBPath returns the default conversation database path.
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), "chat_history.db")
}

// Helper functions

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
