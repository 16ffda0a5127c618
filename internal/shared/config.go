package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Service   ServiceConfig   `toml:"service"`
	Transport TransportConfig `toml:"transport"`
	Preview   PreviewConfig   `toml:"preview"`
	Output    OutputConfig    `toml:"output"`
	Log       LogConfig       `toml:"log"`
	Stub      StubConfig      `toml:"stub"`
}

// ServiceConfig locates the mapping service endpoints.
type ServiceConfig struct {
	BaseURL    string `toml:"base_url"`
	UploadPath string `toml:"upload_path"`
	HealthPath string `toml:"health_path"`
}

// TransportConfig is handed to the HTTP transport as-is; the submission flow itself never retries.
type TransportConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
	RetryMax       int `toml:"retry_max"`
	RetryWaitMinMS int `toml:"retry_wait_min_ms"`
	RetryWaitMaxMS int `toml:"retry_wait_max_ms"`
}

// PreviewConfig tunes the preview pipeline.
type PreviewConfig struct {
	MaxConcurrent int `toml:"max_concurrent"`
	Width         int `toml:"width"`
}

// OutputConfig controls where downloaded models are written.
type OutputConfig struct {
	DownloadDir string `toml:"download_dir"`
}

// LogConfig sets the log level and the TUI log file.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// StubConfig configures the local stub service.
type StubConfig struct {
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	OutputDir     string `toml:"output_dir"`
	ViewsPerImage int    `toml:"views_per_image"`
}

// Timeout returns the client timeout; zero means none.
func (t TransportConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// RetryWaitMin returns the minimum backoff between transport retries.
func (t TransportConfig) RetryWaitMin() time.Duration {
	return time.Duration(t.RetryWaitMinMS) * time.Millisecond
}

// RetryWaitMax returns the maximum backoff between transport retries.
func (t TransportConfig) RetryWaitMax() time.Duration {
	return time.Duration(t.RetryWaitMaxMS) * time.Millisecond
}

// Addr returns the stub listen address.
func (s StubConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Validate checks the values the client cannot run without.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Service.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: service.base_url %q is not an absolute URL", ErrInvalidConfig, c.Service.BaseURL)
	}
	if !strings.HasPrefix(c.Service.UploadPath, "/") {
		return fmt.Errorf("%w: service.upload_path must start with /", ErrInvalidConfig)
	}
	if c.Transport.RetryMax < 0 {
		return fmt.Errorf("%w: transport.retry_max must not be negative", ErrInvalidConfig)
	}
	if c.Preview.MaxConcurrent < 1 {
		return fmt.Errorf("%w: preview.max_concurrent must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
