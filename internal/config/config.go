// Package config handles MyThing configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/mything/config.yaml, /etc/mything/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "mything", "config.yaml"))
	}

	paths = append(paths, "/etc/mything/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all MyThing configuration.
type Config struct {
	Listen   ListenConfig   `yaml:"listen"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Database DatabaseConfig `yaml:"database"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	LogLevel string         `yaml:"log_level"`
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// GeminiConfig defines the generative model settings.
type GeminiConfig struct {
	// APIKey authenticates against the Gemini API. The GEMINI_API_KEY
	// environment variable takes precedence when set.
	APIKey string `yaml:"api_key"`
	// Models is the fallback chain, tried top to bottom per exchange.
	Models []string `yaml:"models"`
}

// DatabaseConfig defines the SQLite database location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScraperConfig defines settings for the out-of-process news scraper.
type ScraperConfig struct {
	// Token is the shared secret the scraper presents on the ingestion
	// endpoint. Ingestion is rejected when empty.
	Token string `yaml:"token"`
}

// DefaultModelChain is the model fallback order used when the config
// file doesn't specify one. Both models support function calling.
var DefaultModelChain = []string{"gemini-2.5-flash", "gemini-2.5-flash-lite"}

// Load reads and parses a YAML config file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Listen.Port == 0 {
		c.Listen.Port = 8080
	}
	if len(c.Gemini.Models) == 0 {
		c.Gemini.Models = DefaultModelChain
	}
	if c.Database.Path == "" {
		c.Database.Path = "mything.db"
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
}
