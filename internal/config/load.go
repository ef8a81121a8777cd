package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default crawler budget values.
const (
	DefaultMaxDepth         = 3
	DefaultMaxPagesPerDepth = 10
	DefaultLLMURLThreshold  = 20
	DefaultUserAgent        = "RivalScanBot/1.0"
)

// Default matching score constants. Empirically chosen; see MatchingConfig.
const (
	DefaultBaseScore         = 60
	DefaultBusinessTypeBonus = 15
	DefaultPerMatchBonus     = 5
	DefaultMaxMatchBonus     = 25
	DefaultAcceptFloor       = 30
)

// Load initializes Viper, reads config files and environment variables,
// and unmarshals the result into a validated Config.
func Load(cfgFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)
	bindEnvVars(v)

	// Missing config file is fine; defaults and env vars apply.
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets production-safe default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app", map[string]any{
		"name":        "rivalscan",
		"version":     "1.0.0",
		"environment": "production",
		"debug":       false,
	})

	v.SetDefault("logger", map[string]any{
		"level":       "info",
		"encoding":    "json",
		"development": false,
	})

	v.SetDefault("server", map[string]any{
		"address":          ":8080",
		"read_timeout":     "15s",
		"write_timeout":    "30s",
		"idle_timeout":     "60s",
		"shutdown_timeout": "10s",
	})

	v.SetDefault("crawler", map[string]any{
		"max_depth":           DefaultMaxDepth,
		"max_pages_per_depth": DefaultMaxPagesPerDepth,
		"llm_url_threshold":   DefaultLLMURLThreshold,
		"user_agent":          DefaultUserAgent,
		"request_timeout":     "30s",
		"max_retries":         3,
		"retry_initial":       "500ms",
		"retry_max_elapsed":   "15s",
	})

	v.SetDefault("matching", map[string]any{
		"base_score":          DefaultBaseScore,
		"business_type_bonus": DefaultBusinessTypeBonus,
		"per_match_bonus":     DefaultPerMatchBonus,
		"max_match_bonus":     DefaultMaxMatchBonus,
		"accept_floor":        DefaultAcceptFloor,
	})

	v.SetDefault("llm", map[string]any{
		"api_url": "https://api.openai.com/v1",
		"model":   "gpt-4o-mini",
		"timeout": "60s",
	})

	v.SetDefault("search", map[string]any{
		"api_url": "https://google.serper.dev",
		"timeout": "20s",
	})

	v.SetDefault("discovery", map[string]any{
		"max_concurrent_analyses": 5,
		"max_candidates":          15,
	})
}

// bindEnvVars binds well-known environment variables to config keys.
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("app.environment", "APP_ENV")
	_ = v.BindEnv("app.debug", "APP_DEBUG")
	_ = v.BindEnv("logger.level", "LOG_LEVEL")
	_ = v.BindEnv("logger.encoding", "LOG_FORMAT")
	_ = v.BindEnv("llm.api_key", "LLM_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("llm.api_url", "LLM_API_URL")
	_ = v.BindEnv("llm.model", "LLM_MODEL")
	_ = v.BindEnv("search.api_key", "SEARCH_API_KEY", "SERPER_API_KEY")
	_ = v.BindEnv("search.api_url", "SEARCH_API_URL")
	_ = v.BindEnv("server.address", "SERVER_ADDRESS")
}
