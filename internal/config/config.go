// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the relay.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shineum/simplemail-relay/internal/email"
)

const defaultAPITimeout = 30 * time.Second

// Config holds the complete application configuration.
type Config struct {
	SimpleMail SimpleMailConfig `yaml:"simplemail"`
	Site       SiteConfig       `yaml:"site"`
	Debug      DebugConfig      `yaml:"debug"`
	HTTP       HTTPConfig       `yaml:"http"`
	Fallback   string           `yaml:"fallback"`
	SES        SESConfig        `yaml:"ses"`
	Graph      GraphConfig      `yaml:"graph"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SimpleMailConfig holds SimpleMail API settings.
type SimpleMailConfig struct {
	APIKey      string        `yaml:"api_key"`
	SenderEmail string        `yaml:"sender_email"`
	SenderName  string        `yaml:"sender_name"`
	Endpoint    string        `yaml:"endpoint"`
	Timeout     time.Duration `yaml:"timeout"`
	CheckStatus bool          `yaml:"check_status"`
}

// SiteConfig holds the site identity used for sender defaults.
type SiteConfig struct {
	Name       string `yaml:"name"`
	AdminEmail string `yaml:"admin_email"`
}

// DebugConfig gates failure logging; both flags must be on.
type DebugConfig struct {
	Enabled bool `yaml:"enabled"`
	Log     bool `yaml:"log"`
}

// HTTPConfig holds the inbound HTTP listener configuration.
type HTTPConfig struct {
	Listen   string `yaml:"listen"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SESConfig holds AWS SES configuration.
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Sender          string `yaml:"sender"`
}

// GraphConfig holds Microsoft Graph API configuration.
type GraphConfig struct {
	TenantID     string `yaml:"tenant_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Sender       string `yaml:"sender"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}
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
	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SenderDefaults returns the default sender identity: the configured sender
// name and email, falling back to the site name and admin email.
func (c *Config) SenderDefaults() email.Sender {
	s := email.Sender{
		Name:  c.SimpleMail.SenderName,
		Email: c.SimpleMail.SenderEmail,
	}
	if s.Name == "" {
		s.Name = c.Site.Name
	}
	if s.Email == "" {
		s.Email = c.Site.AdminEmail
	}
	return s
}

// SimpleMailConfigured returns true if an API key is set.
func (c *Config) SimpleMailConfigured() bool {
	return c.SimpleMail.APIKey != ""
}

// SESConfigured returns true if the SES region and sender are set.
func (c *Config) SESConfigured() bool {
	return c.SES.Region != "" && c.SES.Sender != ""
}

// GraphConfigured returns true if all four Graph API credentials are set.
func (c *Config) GraphConfigured() bool {
	return c.Graph.TenantID != "" &&
		c.Graph.ClientID != "" &&
		c.Graph.ClientSecret != "" &&
		c.Graph.Sender != ""
}

// AuthEnabled returns true if both HTTP username and password are set.
func (c *Config) AuthEnabled() bool {
	return c.HTTP.Username != "" && c.HTTP.Password != ""
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.SimpleMail.Timeout = defaultAPITimeout
	c.HTTP.Listen = ":8025"
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() error {
	setString(&c.SimpleMail.APIKey, "SIMPLEMAIL_API_KEY")
	setString(&c.SimpleMail.SenderEmail, "SIMPLEMAIL_SENDER_EMAIL")
	setString(&c.SimpleMail.SenderName, "SIMPLEMAIL_SENDER_NAME")
	setString(&c.SimpleMail.Endpoint, "SIMPLEMAIL_ENDPOINT")
	if v := os.Getenv("SIMPLEMAIL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SIMPLEMAIL_TIMEOUT %q: %w", v, err)
		}
		c.SimpleMail.Timeout = d
	}
	if err := setBool(&c.SimpleMail.CheckStatus, "SIMPLEMAIL_CHECK_STATUS"); err != nil {
		return err
	}

	setString(&c.Site.Name, "SITE_NAME")
	setString(&c.Site.AdminEmail, "SITE_ADMIN_EMAIL")

	if err := setBool(&c.Debug.Enabled, "DEBUG"); err != nil {
		return err
	}
	if err := setBool(&c.Debug.Log, "DEBUG_LOG"); err != nil {
		return err
	}

	setString(&c.HTTP.Listen, "HTTP_LISTEN")
	setString(&c.HTTP.Username, "HTTP_USERNAME")
	setString(&c.HTTP.Password, "HTTP_PASSWORD")

	if v := os.Getenv("FALLBACK_PROVIDER"); v != "" {
		c.Fallback = strings.ToLower(v)
	}

	setString(&c.SES.Region, "SES_REGION")
	setString(&c.SES.AccessKeyID, "SES_ACCESS_KEY_ID")
	setString(&c.SES.SecretAccessKey, "SES_SECRET_ACCESS_KEY")
	setString(&c.SES.Sender, "SES_SENDER")

	setString(&c.Graph.TenantID, "GRAPH_TENANT_ID")
	setString(&c.Graph.ClientID, "GRAPH_CLIENT_ID")
	setString(&c.Graph.ClientSecret, "GRAPH_CLIENT_SECRET")
	setString(&c.Graph.Sender, "GRAPH_SENDER")

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = b
	return nil
}
