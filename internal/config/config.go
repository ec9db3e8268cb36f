package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Default RSS feeds consulted by the news crawler. Overridable via RSS_FEEDS.
var defaultRSSFeeds = []string{
	"https://www.wallstreet-online.de/rss/nachrichten-aktien-indizes.xml",
	"https://www.finanzen.net/rss/news",
	"https://www.tagesschau.de/wirtschaft/index~rss2.xml",
	"https://www.derstandard.at/rss/wirtschaft",
	"https://rss.orf.at/news.xml",
}

// Config holds application configuration
type Config struct {
	Port                int
	DevMode             bool
	DatabasePath        string
	LogLevel            string
	BaseCurrency        string
	GeminiAPIKey        string
	GeminiModel         string
	QuoteRefreshMinutes int
	RSSFeeds            []string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnvAsInt("PORT", 8080),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		DatabasePath:        getEnv("DATABASE_PATH", "./data/portfolio.db"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		BaseCurrency:        getEnv("BASE_CURRENCY", "EUR"),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		QuoteRefreshMinutes: getEnvAsInt("QUOTE_REFRESH_MINUTES", 5),
		RSSFeeds:            getEnvAsList("RSS_FEEDS", defaultRSSFeeds),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.QuoteRefreshMinutes <= 0 {
		return fmt.Errorf("QUOTE_REFRESH_MINUTES must be positive")
	}

	// Note: GEMINI_API_KEY is optional; without it the AI analysis
	// endpoints report "not configured" instead of failing startup.
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
