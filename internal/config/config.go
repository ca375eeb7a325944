// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the broadcaster.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultEnvFile is loaded when no explicit env file is given.
	DefaultEnvFile = ".env"

	// DefaultFromName is the sender name used when neither the
	// configuration nor a template file provides one. It is applied when
	// the message is built, not by applyDefaults, so a template's sender
	// can still fill an unset name.
	DefaultFromName = "Broadcast System"
)

// Config holds the complete application configuration.
type Config struct {
	Provider  string          `yaml:"provider"`
	API       APIConfig       `yaml:"api"`
	SES       SESConfig       `yaml:"ses"`
	Resend    ResendConfig    `yaml:"resend"`
	Message   MessageConfig   `yaml:"message"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Input     InputConfig     `yaml:"input"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// APIConfig holds the HTTP send endpoint configuration.
type APIConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// SESConfig holds AWS SES configuration.
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Sender          string `yaml:"sender"`
}

// ResendConfig holds Resend API configuration.
type ResendConfig struct {
	APIKey string `yaml:"api_key"`
	Sender string `yaml:"sender"`
}

// MessageConfig holds the message template. TemplateFile, when set, points
// to an .eml file whose fields fill in anything left empty here.
type MessageConfig struct {
	Subject      string `yaml:"subject"`
	Body         string `yaml:"body"`
	HTMLBody     string `yaml:"html_body"`
	Cc           string `yaml:"cc"`
	Bcc          string `yaml:"bcc"`
	TemplateFile string `yaml:"template_file"`
}

// BroadcastConfig holds sender and pacing settings.
type BroadcastConfig struct {
	FromName     string  `yaml:"from_name"`
	DelaySeconds float64 `yaml:"delay_seconds"`
	BatchSize    int     `yaml:"batch_size"`
	Placeholder  string  `yaml:"placeholder"`
}

// InputConfig describes the recipient file.
type InputConfig struct {
	Path        string `yaml:"path"`
	Format      string `yaml:"format"`
	Sheet       string `yaml:"sheet"`
	NameColumn  string `yaml:"name_column"`
	EmailColumn string `yaml:"email_column"`
}

// OutputConfig describes where results are exported. An empty path
// disables the export.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. An empty path means
// DefaultEnvFile, which is allowed to be missing.
func LoadEnvFile(path string) error {
	optional := path == ""
	if optional {
		path = DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// APIConfigured returns true if the HTTP endpoint URL and key are set.
func (c *Config) APIConfigured() bool {
	return c.API.URL != "" && c.API.APIKey != ""
}

// SESConfigured returns true if the SES region and sender are set.
func (c *Config) SESConfigured() bool {
	return c.SES.Region != "" && c.SES.Sender != ""
}

// ResendConfigured returns true if the Resend key and sender are set.
func (c *Config) ResendConfigured() bool {
	return c.Resend.APIKey != "" && c.Resend.Sender != ""
}

// Delay returns the pause between batches.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.Broadcast.DelaySeconds * float64(time.Second))
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.Broadcast.DelaySeconds = 1.0
	c.Broadcast.BatchSize = 10
	c.Broadcast.Placeholder = "{name}"
	c.Input.NameColumn = "name"
	c.Input.EmailColumn = "email"
	c.Logging.Level = "info"
	c.Logging.Format = "json"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}

	if v := os.Getenv("API_URL"); v != "" {
		c.API.URL = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		c.API.APIKey = v
	}

	if v := os.Getenv("SES_REGION"); v != "" {
		c.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY_ID"); v != "" {
		c.SES.AccessKeyID = v
	}
	if v := os.Getenv("SES_SECRET_ACCESS_KEY"); v != "" {
		c.SES.SecretAccessKey = v
	}
	if v := os.Getenv("SES_SENDER"); v != "" {
		c.SES.Sender = v
	}

	if v := os.Getenv("RESEND_API_KEY"); v != "" {
		c.Resend.APIKey = v
	}
	if v := os.Getenv("RESEND_SENDER"); v != "" {
		c.Resend.Sender = v
	}

	if v := os.Getenv("FROM_NAME"); v != "" {
		c.Broadcast.FromName = v
	}
	if v := os.Getenv("DELAY_SECONDS"); v != "" {
		if d, err := strconv.ParseFloat(v, 64); err == nil {
			c.Broadcast.DelaySeconds = d
		}
	}
	if v := os.Getenv("BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Broadcast.BatchSize = n
		}
	}

	if v := os.Getenv("INPUT_PATH"); v != "" {
		c.Input.Path = v
	}
	if v := os.Getenv("OUTPUT_PATH"); v != "" {
		c.Output.Path = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
}
