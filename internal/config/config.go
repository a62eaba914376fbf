package config

import (
	"os"
	"strconv"
)

// Config is built once at startup and passed into constructors. Components
// never look up the environment themselves.
type Config struct {
	// Document store API key. Required for webhook processing.
	NotionAPIKey string
	// Optional default collection for records.
	NotionDatabaseID string
	// Speech-to-text API key. Required only when audio-podcast URLs are used.
	OpenAIAPIKey string
	// Optional shared webhook secret; empty disables the 401 check.
	WebhookSecret string

	Port    int
	Workers int
}

// Load reads configuration from the environment.
func Load() *Config {
	return &Config{
		NotionAPIKey:     os.Getenv("NOTION_API_KEY"),
		NotionDatabaseID: os.Getenv("NOTION_DATABASE_ID"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		WebhookSecret:    os.Getenv("WEBHOOK_SECRET"),
		Port:             envInt("PORT", 8000),
		Workers:          envInt("WORKERS", 4),
	}
}

// MissingKeys lists required keys that are not set. Startup warns about them
// instead of exiting; a missing key only matters once a request needs it.
func (c *Config) MissingKeys() []string {
	var missing []string
	if c.NotionAPIKey == "" {
		missing = append(missing, "NOTION_API_KEY")
	}
	if c.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	return missing
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
