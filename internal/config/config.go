// Package config loads and validates application configuration from
// config files and environment variables via Viper.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/rivalscan/rivalscan/internal/logger"
)

// Config is the root configuration for the application.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logger    logger.Config   `mapstructure:"logger"`
	Server    ServerConfig    `mapstructure:"server"`
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CrawlerConfig bounds the smart crawler's budget.
type CrawlerConfig struct {
	// MaxDepth is the deepest frontier level explored (0 is the homepage).
	MaxDepth int `mapstructure:"max_depth"`
	// MaxPagesPerDepth caps the frontier size at each depth.
	MaxPagesPerDepth int `mapstructure:"max_pages_per_depth"`
	// LLMURLThreshold is the sitemap size above which URL prioritization
	// is delegated to the text-completion capability.
	LLMURLThreshold int           `mapstructure:"llm_url_threshold"`
	UserAgent       string        `mapstructure:"user_agent"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryInitial    time.Duration `mapstructure:"retry_initial"`
	RetryMaxElapsed time.Duration `mapstructure:"retry_max_elapsed"`
}

// MatchingConfig holds the empirically chosen scoring constants. They carry
// no documented rationale beyond observed behavior and are deliberately kept
// as configuration rather than hard-coded literals.
type MatchingConfig struct {
	// BaseScore is the starting composite score for an analyzed competitor.
	BaseScore int `mapstructure:"base_score"`
	// BusinessTypeBonus is added when detected and declared business types
	// match case-insensitively.
	BusinessTypeBonus int `mapstructure:"business_type_bonus"`
	// PerMatchBonus is added per matched offering.
	PerMatchBonus int `mapstructure:"per_match_bonus"`
	// MaxMatchBonus caps the total product-match density bonus.
	MaxMatchBonus int `mapstructure:"max_match_bonus"`
	// AcceptFloor is the minimum name-similarity score for a match to be
	// recorded.
	AcceptFloor int `mapstructure:"accept_floor"`
}

// LLMConfig configures the text-completion capability.
type LLMConfig struct {
	APIURL  string        `mapstructure:"api_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SearchConfig configures the web-search capability.
type SearchConfig struct {
	APIURL  string        `mapstructure:"api_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DiscoveryConfig bounds the discovery orchestrator.
type DiscoveryConfig struct {
	// MaxConcurrentAnalyses caps concurrent per-domain competitor analyses.
	MaxConcurrentAnalyses int `mapstructure:"max_concurrent_analyses"`
	// MaxCandidates caps the number of candidate domains analyzed per run.
	MaxCandidates int `mapstructure:"max_candidates"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("app environment must be specified")
	}
	switch c.App.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid environment: %s", c.App.Environment)
	}

	if c.Crawler.MaxDepth < 0 {
		return errors.New("crawler max_depth must be non-negative")
	}
	if c.Crawler.MaxPagesPerDepth <= 0 {
		return errors.New("crawler max_pages_per_depth must be positive")
	}
	if c.Matching.AcceptFloor < 0 || c.Matching.AcceptFloor > maxScore {
		return fmt.Errorf("matching accept_floor must be in [0, %d]", maxScore)
	}
	if c.Matching.BaseScore < 0 || c.Matching.BaseScore > maxScore {
		return fmt.Errorf("matching base_score must be in [0, %d]", maxScore)
	}
	if c.Discovery.MaxConcurrentAnalyses <= 0 {
		return errors.New("discovery max_concurrent_analyses must be positive")
	}
	if c.Server.Address == "" {
		return errors.New("server address must be specified")
	}

	return nil
}

// maxScore is the upper bound of all match scores.
const maxScore = 100
