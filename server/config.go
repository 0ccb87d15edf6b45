package server

import (
	"github.com/xiaoyuanzhu-com/review-digest/config"
	"github.com/xiaoyuanzhu-com/review-digest/db"
	"github.com/xiaoyuanzhu-com/review-digest/sampler"
	"github.com/xiaoyuanzhu-com/review-digest/vendors"
	"github.com/xiaoyuanzhu-com/review-digest/workers/ingest"
	"github.com/xiaoyuanzhu-com/review-digest/workers/summary"
)

// Config holds server configuration
type Config struct {
	// Server infrastructure (immutable, requires restart)
	Port int
	Host string
	Env  string // "development" or "production"

	// Paths (immutable, requires restart)
	DatabasePath string
	ImportDir    string // empty disables the import watcher

	// External services
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	OpenAIRPS     float64
	OpenAIBurst   int

	MeiliHost   string
	MeiliAPIKey string
	MeiliIndex  string

	GoogleClientID string

	// Sampling and summaries
	SampleBudgetChars int
	SamplePoolCap     int
	SampleWorkers     int
	ReviewMinChars    int
	ReviewMaxChars    int
	ReviewWindow      int

	// Debug settings
	DBLogQueries bool
}

// FromAppConfig copies the environment-derived application config
func FromAppConfig(c *config.Config) *Config {
	return &Config{
		Port:              c.Port,
		Host:              c.Host,
		Env:               c.Env,
		DatabasePath:      c.DatabasePath,
		ImportDir:         c.ImportDir,
		OpenAIAPIKey:      c.OpenAIAPIKey,
		OpenAIBaseURL:     c.OpenAIBaseURL,
		OpenAIModel:       c.OpenAIModel,
		OpenAIRPS:         c.OpenAIRPS,
		OpenAIBurst:       c.OpenAIBurst,
		MeiliHost:         c.MeiliHost,
		MeiliAPIKey:       c.MeiliAPIKey,
		MeiliIndex:        c.MeiliIndex,
		GoogleClientID:    c.GoogleClientID,
		SampleBudgetChars: c.SampleBudgetChars,
		SamplePoolCap:     c.SamplePoolCap,
		SampleWorkers:     c.SampleWorkers,
		ReviewMinChars:    c.ReviewMinChars,
		ReviewMaxChars:    c.ReviewMaxChars,
		ReviewWindow:      c.ReviewWindow,
		DBLogQueries:      c.DBLogQueries,
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

// ToDBConfig converts server config to database config
func (c *Config) ToDBConfig() db.Config {
	return db.Config{
		Path:            c.DatabasePath,
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 0, // Never expire
		LogQueries:      c.DBLogQueries,
	}
}

// ToSamplerOptions converts server config to sampler options
func (c *Config) ToSamplerOptions() sampler.Options {
	return sampler.Options{
		BudgetChars: c.SampleBudgetChars,
		PoolCap:     c.SamplePoolCap,
		Workers:     c.SampleWorkers,
	}
}

// ToSummaryConfig converts server config to summary service config
func (c *Config) ToSummaryConfig() summary.Config {
	return summary.Config{
		MinChars: c.ReviewMinChars,
		MaxChars: c.ReviewMaxChars,
		Window:   c.ReviewWindow,
	}
}

// ToOpenAIConfig converts server config to the OpenAI client config
func (c *Config) ToOpenAIConfig() vendors.OpenAIConfig {
	return vendors.OpenAIConfig{
		APIKey:  c.OpenAIAPIKey,
		BaseURL: c.OpenAIBaseURL,
		Model:   c.OpenAIModel,
		RPS:     c.OpenAIRPS,
		Burst:   c.OpenAIBurst,
	}
}

// ToMeiliConfig converts server config to the Meilisearch client config
func (c *Config) ToMeiliConfig() vendors.MeiliConfig {
	return vendors.MeiliConfig{
		Host:        c.MeiliHost,
		APIKey:      c.MeiliAPIKey,
		IndexPrefix: c.MeiliIndex,
	}
}

// ToIngestConfig converts server config to import watcher config
func (c *Config) ToIngestConfig() ingest.Config {
	return ingest.Config{
		Dir:           c.ImportDir,
		DebounceDelay: ingest.DefaultDebounceDelay,
	}
}
