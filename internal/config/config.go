// Package config handles YAML run-configuration parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Harness  HarnessConfig  `yaml:"harness"`
	TestCase TestCaseConfig `yaml:"testcase"`
	Output   OutputConfig   `yaml:"output,omitempty"`
}

// HarnessConfig mirrors the harness options.
type HarnessConfig struct {
	Workers int           `yaml:"workers"`
	Repeat  int           `yaml:"repeat"`
	Jitter  time.Duration `yaml:"jitter"`
	// Rate caps task starts per second; zero means unlimited.
	Rate int `yaml:"rate"`
}

// TestCaseConfig selects and parameterizes the workload.
type TestCaseConfig struct {
	// Type is "http" or "assistant".
	Type string `yaml:"type"`

	// http
	URL           string `yaml:"url,omitempty"`
	SessionCookie string `yaml:"sessionCookie,omitempty"`

	// assistant
	BaseURL      string        `yaml:"baseUrl,omitempty"`
	APIKey       string        `yaml:"apiKey,omitempty"`
	Prompt       string        `yaml:"prompt,omitempty"`
	PollInterval time.Duration `yaml:"pollInterval,omitempty"`
	MaxPolls     int           `yaml:"maxPolls,omitempty"`
}

// OutputConfig controls persistence of results.
type OutputConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration before any work is scheduled.
func (c *Config) Validate() error {
	if c.Harness.Workers < 1 {
		return fmt.Errorf("harness.workers must be >= 1, got %d", c.Harness.Workers)
	}
	if c.Harness.Repeat < 0 {
		return fmt.Errorf("harness.repeat must be >= 0, got %d", c.Harness.Repeat)
	}
	if c.Harness.Jitter < 0 {
		return fmt.Errorf("harness.jitter must be >= 0, got %v", c.Harness.Jitter)
	}
	if c.Harness.Rate < 0 {
		return fmt.Errorf("harness.rate must be >= 0, got %d", c.Harness.Rate)
	}

	switch c.TestCase.Type {
	case "http":
		if c.TestCase.URL == "" {
			return fmt.Errorf("testcase.url is required for type http")
		}
	case "assistant":
		if c.TestCase.BaseURL == "" {
			return fmt.Errorf("testcase.baseUrl is required for type assistant")
		}
	default:
		return fmt.Errorf("testcase.type must be http or assistant, got %q", c.TestCase.Type)
	}
	return nil
}
