package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port int
	Host string
	Env  string // "development" or "production"

	// Data directory
	DataDir string

	// Database
	DatabasePath string

	// Review import directory watched for JSON batches
	ImportDir string

	// External services
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	OpenAIRPS     float64
	OpenAIBurst   int

	MeiliHost   string
	MeiliAPIKey string
	MeiliIndex  string

	// Google sign-in; empty disables ID token verification
	GoogleClientID string

	// Sampling
	SampleBudgetChars int
	SamplePoolCap     int
	SampleWorkers     int

	// Review window used for summaries
	ReviewMinChars int
	ReviewMaxChars int
	ReviewWindow   int

	// Debug settings
	LogLevel     string
	DBLogQueries bool
}

var (
	cfg  *Config
	once sync.Once
)

// Get returns the global configuration (singleton)
func Get() *Config {
	once.Do(func() {
		cfg = load()
	})
	return cfg
}

// load reads configuration from environment variables
func load() *Config {
	dataDir := getEnv("DATA_DIR", "./data")
	appDir := filepath.Join(dataDir, "app", "review-digest")

	return &Config{
		// Server
		Port: getEnvInt("PORT", 12345),
		Host: getEnv("HOST", "0.0.0.0"),
		Env:  getEnv("ENV", "development"),

		// Data
		DataDir:      dataDir,
		DatabasePath: filepath.Join(appDir, "database.sqlite"),
		ImportDir:    getEnv("IMPORT_DIR", filepath.Join(dataDir, "import")),

		// OpenAI
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIRPS:     getEnvFloat("OPENAI_RPS", 1.0),
		OpenAIBurst:   getEnvInt("OPENAI_BURST", 2),

		// Meilisearch
		MeiliHost:   getEnv("MEILI_HOST", ""),
		MeiliAPIKey: getEnv("MEILI_API_KEY", ""),
		MeiliIndex:  getEnv("MEILI_INDEX", "app_reviews"),

		// Google
		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),

		// Sampling
		SampleBudgetChars: getEnvInt("SAMPLE_BUDGET_CHARS", 5000),
		SamplePoolCap:     getEnvInt("SAMPLE_POOL_CAP", 100),
		SampleWorkers:     getEnvInt("SAMPLE_WORKERS", 4),

		// Reviews
		ReviewMinChars: getEnvInt("REVIEW_MIN_CHARS", 50),
		ReviewMaxChars: getEnvInt("REVIEW_MAX_CHARS", 400),
		ReviewWindow:   getEnvInt("REVIEW_WINDOW", 500),

		// Debug
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DBLogQueries: getEnv("DB_LOG_QUERIES", "") == "1",
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
