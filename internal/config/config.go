// Package config handles sales coach configuration.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. SALESCOACH_SERVER_PORT.
const EnvPrefix = "SALESCOACH"

// Config holds all configuration
type Config struct {
	// Paths
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	// Server
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Storage
	Database DatabaseConfig `json:"database" mapstructure:"database"`

	// Services
	LLM LLMConfig `json:"llm" mapstructure:"llm"`

	// Decision engine
	Coach CoachConfig `json:"coach" mapstructure:"coach"`

	// Logging
	Log LogConfig `json:"log" mapstructure:"log"`

	// Features
	Features FeatureConfig `json:"features" mapstructure:"features"`
}

// ServerConfig for HTTP server
type ServerConfig struct {
	Port int    `json:"port" mapstructure:"port"`
	Host string `json:"host" mapstructure:"host"`
}

// DatabaseConfig for the SQLite record store
type DatabaseConfig struct {
	Path string `json:"path" mapstructure:"path"` // empty means <data_dir>/salescoach.db
}

// LLMConfig for the chat model
type LLMConfig struct {
	APIKey  string `json:"api_key" mapstructure:"api_key"`
	BaseURL string `json:"base_url" mapstructure:"base_url"`
	Model   string `json:"model" mapstructure:"model"`
}

// CoachConfig tunes the decision engine
type CoachConfig struct {
	DealValue    float64 `json:"deal_value" mapstructure:"deal_value"` // average ticket used in reasoning strings
	HistoryTurns int     `json:"history_turns" mapstructure:"history_turns"`
}

// LogConfig for the structured logger
type LogConfig struct {
	Level string `json:"level" mapstructure:"level"`
	JSON  bool   `json:"json" mapstructure:"json"`
}

// FeatureConfig for feature flags
type FeatureConfig struct {
	EnableChat    bool `json:"enable_chat" mapstructure:"enable_chat"`
	EnableMetrics bool `json:"enable_metrics" mapstructure:"enable_metrics"`
	DebugMode     bool `json:"debug_mode" mapstructure:"debug_mode"`
}

// Default returns default configuration
func Default() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		DataDir: filepath.Join(home, ".salescoach"),
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		LLM: LLMConfig{
			APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
			BaseURL: "https://api.anthropic.com",
			Model:   "claude-sonnet-4-20250514",
		},
		Coach: CoachConfig{
			DealValue:    700,
			HistoryTurns: 10,
		},
		Log: LogConfig{
			Level: "info",
		},
		Features: FeatureConfig{
			EnableChat:    true,
			EnableMetrics: true,
			DebugMode:     false,
		},
	}
}

// DatabasePath resolves the SQLite file path
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.DataDir, "salescoach.db")
}

// Load loads config from file and environment, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = filepath.Join(cfg.DataDir, "config.json")
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
		// Use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	// Override API key from env if set
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("llm.api_key", cfg.LLM.APIKey)
	v.SetDefault("llm.base_url", cfg.LLM.BaseURL)
	v.SetDefault("llm.model", cfg.LLM.Model)
	v.SetDefault("coach.deal_value", cfg.Coach.DealValue)
	v.SetDefault("coach.history_turns", cfg.Coach.HistoryTurns)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.json", cfg.Log.JSON)
	v.SetDefault("features.enable_chat", cfg.Features.EnableChat)
	v.SetDefault("features.enable_metrics", cfg.Features.EnableMetrics)
	v.SetDefault("features.debug_mode", cfg.Features.DebugMode)
}

// Save saves config to file
func (c *Config) Save(path string) error {
	if path == "" {
		path = filepath.Join(c.DataDir, "config.json")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	// Don't save API key to file
	safeCfg := *c
	safeCfg.LLM.APIKey = ""

	data, err := json.MarshalIndent(safeCfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
