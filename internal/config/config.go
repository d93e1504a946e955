// Package config loads registry settings from an optional YAML file and then
// applies environment overrides, so a CI workflow can configure everything
// through env vars alone.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "registry.yaml"

// Config holds all registry configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	GitHub   GitHubConfig   `yaml:"github"`
	Intake   IntakeConfig   `yaml:"intake"`
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path        string        `yaml:"path" env:"REGISTRY_DB_PATH"`
	BusyTimeout time.Duration `yaml:"busy_timeout" env:"REGISTRY_DB_BUSY_TIMEOUT"`
}

// GitHubConfig configures the issue comment/close client.
type GitHubConfig struct {
	APIURL         string        `yaml:"api_url" env:"GITHUB_API_URL"`
	Repository     string        `yaml:"repository" env:"GITHUB_REPOSITORY"` // owner/name
	Token          string        `yaml:"-" env:"GITHUB_TOKEN"`
	EventPath      string        `yaml:"-" env:"GITHUB_EVENT_PATH"`
	Timeout        time.Duration `yaml:"timeout" env:"REGISTRY_GITHUB_TIMEOUT"`
	CloseOnSuccess bool          `yaml:"close_on_success" env:"REGISTRY_CLOSE_ON_SUCCESS"`
	SuccessLabels  []string      `yaml:"success_labels" env:"REGISTRY_SUCCESS_LABELS" envSeparator:","`
	RejectLabels   []string      `yaml:"reject_labels" env:"REGISTRY_REJECT_LABELS" envSeparator:","`
}

// IntakeConfig tunes submission classification.
type IntakeConfig struct {
	UpdateLabels []string `yaml:"update_labels" env:"REGISTRY_UPDATE_LABELS" envSeparator:","`
	CreateLabels []string `yaml:"create_labels" env:"REGISTRY_CREATE_LABELS" envSeparator:","`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        filepath.Join("data", "users.db"),
			BusyTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		GitHub: GitHubConfig{
			APIURL:         "https://api.github.com",
			Timeout:        15 * time.Second,
			CloseOnSuccess: true,
			SuccessLabels:  []string{"registry:applied"},
			RejectLabels:   []string{"registry:needs-fix"},
		},
		Intake: IntakeConfig{
			UpdateLabels: []string{"update", "update-record"},
			CreateLabels: []string{"create", "create-record"},
		},
	}
}

// Load reads path over the defaults, then applies environment overrides. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML. Secrets are never written.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate rejects settings no command can run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("config: database.path is required")
	}
	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("config: database.busy_timeout must not be negative")
	}
	if c.GitHub.Timeout < 0 {
		return fmt.Errorf("config: github.timeout must not be negative")
	}
	if repo := strings.TrimSpace(c.GitHub.Repository); repo != "" {
		if _, _, ok := c.GitHub.OwnerRepo(); !ok {
			return fmt.Errorf("config: github.repository must be owner/name, got %q", repo)
		}
	}
	return nil
}

// OwnerRepo splits Repository into its owner and name.
func (g GitHubConfig) OwnerRepo() (string, string, bool) {
	owner, name, ok := strings.Cut(strings.TrimSpace(g.Repository), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", false
	}
	return owner, name, true
}
