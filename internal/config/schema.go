// Package config defines the configuration schema for the studyai backend.
//
// JSON keys use camelCase to stay compatible with config files written by
// earlier deployments of the engine.
package config

import (
	"os"
	"path/filepath"
)

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{Host: "0.0.0.0", Port: 8000}
}

// RedisConfig configures the durable session store. When Addr is empty the
// backend is considered unconfigured and the in-memory store is used.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db"`
}

// OpenAIConfig holds credentials for the model endpoint.
type OpenAIConfig struct {
	APIKey  string `json:"apiKey"`
	APIBase string `json:"apiBase,omitempty"`
}

// ModelConfig holds model selection and sampling defaults.
type ModelConfig struct {
	Name        string  `json:"name"`
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
}

func defaultModelConfig() ModelConfig {
	return ModelConfig{
		Name:        "gpt-4o-mini",
		MaxTokens:   1500,
		Temperature: 0.3,
	}
}

// SessionConfig tunes the session manager. The compression threshold must
// stay strictly below the context ceiling so a compressed session always
// fits the model window.
type SessionConfig struct {
	TTLHours             int    `json:"ttlHours"`
	MaxContextTokens     int    `json:"maxContextTokens"`
	CompressionThreshold int    `json:"compressionThreshold"`
	KeepRecentMessages   int    `json:"keepRecentMessages"`
	SummaryTimeoutSec    int    `json:"summaryTimeoutSeconds"`
	SweepSchedule        string `json:"sweepSchedule"`
}

func defaultSessionConfig() SessionConfig {
	return SessionConfig{
		TTLHours:             24,
		MaxContextTokens:     4000,
		CompressionThreshold: 3000,
		KeepRecentMessages:   6,
		SummaryTimeoutSec:    30,
		SweepSchedule:        "@every 1h",
	}
}

// Config is the root configuration object.
type Config struct {
	Server  ServerConfig  `json:"server"`
	Redis   RedisConfig   `json:"redis"`
	OpenAI  OpenAIConfig  `json:"openai"`
	Model   ModelConfig   `json:"model"`
	Session SessionConfig `json:"session"`
}

// DefaultConfig returns the configuration used when no file exists.
// The OpenAI key falls back to the conventional environment variable.
func DefaultConfig() Config {
	return Config{
		Server:  defaultServerConfig(),
		OpenAI:  OpenAIConfig{APIKey: os.Getenv("OPENAI_API_KEY")},
		Model:   defaultModelConfig(),
		Session: defaultSessionConfig(),
	}
}

// ConfigPath returns the default configuration file path: ~/.studyai/config.json.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".studyai/config.json"
	}
	return filepath.Join(home, ".studyai", "config.json")
}
