package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shineum/simplemail-relay/internal/email"
)

var allEnvVars = []string{
	"SIMPLEMAIL_API_KEY", "SIMPLEMAIL_SENDER_EMAIL", "SIMPLEMAIL_SENDER_NAME",
	"SIMPLEMAIL_ENDPOINT", "SIMPLEMAIL_TIMEOUT", "SIMPLEMAIL_CHECK_STATUS",
	"SITE_NAME", "SITE_ADMIN_EMAIL", "DEBUG", "DEBUG_LOG",
	"HTTP_LISTEN", "HTTP_USERNAME", "HTTP_PASSWORD", "FALLBACK_PROVIDER",
	"GRAPH_TENANT_ID", "GRAPH_CLIENT_ID", "GRAPH_CLIENT_SECRET", "GRAPH_SENDER",
	"SES_REGION", "SES_ACCESS_KEY_ID", "SES_SECRET_ACCESS_KEY", "SES_SENDER",
	"LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range allEnvVars {
		t.Setenv(env, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Listen != ":8025" {
		t.Errorf("HTTP.Listen: got %q, want %q", cfg.HTTP.Listen, ":8025")
	}
	if cfg.SimpleMail.APIKey != "" {
		t.Errorf("SimpleMail.APIKey: got %q, want empty", cfg.SimpleMail.APIKey)
	}
	if cfg.SimpleMail.Timeout != 30*time.Second {
		t.Errorf("SimpleMail.Timeout: got %v, want 30s", cfg.SimpleMail.Timeout)
	}
	if cfg.SimpleMail.CheckStatus {
		t.Error("SimpleMail.CheckStatus: got true, want false")
	}
	if cfg.Debug.Enabled || cfg.Debug.Log {
		t.Errorf("Debug: got %+v, want both false", cfg.Debug)
	}
	if cfg.Fallback != "" {
		t.Errorf("Fallback: got %q, want empty", cfg.Fallback)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.SimpleMailConfigured() {
		t.Error("SimpleMailConfigured: got true, want false")
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SIMPLEMAIL_API_KEY", "key-123")
	t.Setenv("SIMPLEMAIL_SENDER_EMAIL", "noreply@example.com")
	t.Setenv("SIMPLEMAIL_SENDER_NAME", "Example")
	t.Setenv("SIMPLEMAIL_ENDPOINT", "http://localhost:9999/send")
	t.Setenv("SIMPLEMAIL_TIMEOUT", "5s")
	t.Setenv("SIMPLEMAIL_CHECK_STATUS", "true")
	t.Setenv("SITE_NAME", "My Site")
	t.Setenv("SITE_ADMIN_EMAIL", "admin@example.com")
	t.Setenv("DEBUG", "1")
	t.Setenv("DEBUG_LOG", "true")
	t.Setenv("HTTP_LISTEN", ":9025")
	t.Setenv("HTTP_USERNAME", "admin")
	t.Setenv("HTTP_PASSWORD", "secret123")
	t.Setenv("FALLBACK_PROVIDER", "SES")
	t.Setenv("SES_REGION", "eu-central-1")
	t.Setenv("SES_SENDER", "ses@example.com")
	t.Setenv("GRAPH_TENANT_ID", "tid-123")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SimpleMail.APIKey != "key-123" {
		t.Errorf("SimpleMail.APIKey: got %q, want %q", cfg.SimpleMail.APIKey, "key-123")
	}
	if cfg.SimpleMail.SenderEmail != "noreply@example.com" {
		t.Errorf("SimpleMail.SenderEmail: got %q", cfg.SimpleMail.SenderEmail)
	}
	if cfg.SimpleMail.SenderName != "Example" {
		t.Errorf("SimpleMail.SenderName: got %q", cfg.SimpleMail.SenderName)
	}
	if cfg.SimpleMail.Endpoint != "http://localhost:9999/send" {
		t.Errorf("SimpleMail.Endpoint: got %q", cfg.SimpleMail.Endpoint)
	}
	if cfg.SimpleMail.Timeout != 5*time.Second {
		t.Errorf("SimpleMail.Timeout: got %v, want 5s", cfg.SimpleMail.Timeout)
	}
	if !cfg.SimpleMail.CheckStatus {
		t.Error("SimpleMail.CheckStatus: got false, want true")
	}
	if cfg.Site.Name != "My Site" || cfg.Site.AdminEmail != "admin@example.com" {
		t.Errorf("Site: got %+v", cfg.Site)
	}
	if !cfg.Debug.Enabled || !cfg.Debug.Log {
		t.Errorf("Debug: got %+v, want both true", cfg.Debug)
	}
	if cfg.HTTP.Listen != ":9025" {
		t.Errorf("HTTP.Listen: got %q, want %q", cfg.HTTP.Listen, ":9025")
	}
	if !cfg.AuthEnabled() {
		t.Error("AuthEnabled: got false, want true")
	}
	if cfg.Fallback != "ses" {
		t.Errorf("Fallback: got %q, want %q", cfg.Fallback, "ses")
	}
	if !cfg.SESConfigured() {
		t.Error("SESConfigured: got false, want true")
	}
	if cfg.Graph.TenantID != "tid-123" {
		t.Errorf("Graph.TenantID: got %q, want %q", cfg.Graph.TenantID, "tid-123")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "timeout", key: "SIMPLEMAIL_TIMEOUT", value: "soon"},
		{name: "check status", key: "SIMPLEMAIL_CHECK_STATUS", value: "maybe"},
		{name: "debug", key: "DEBUG", value: "yes please"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%q, got nil", tt.key, tt.value)
			}
		})
	}
}

func TestSenderDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want email.Sender
	}{
		{
			name: "configured sender",
			cfg: Config{
				SimpleMail: SimpleMailConfig{SenderName: "Mailer", SenderEmail: "mailer@example.com"},
				Site:       SiteConfig{Name: "Site", AdminEmail: "admin@example.com"},
			},
			want: email.Sender{Name: "Mailer", Email: "mailer@example.com"},
		},
		{
			name: "site fallback",
			cfg:  Config{Site: SiteConfig{Name: "Site", AdminEmail: "admin@example.com"}},
			want: email.Sender{Name: "Site", Email: "admin@example.com"},
		},
		{
			name: "mixed",
			cfg: Config{
				SimpleMail: SimpleMailConfig{SenderEmail: "mailer@example.com"},
				Site:       SiteConfig{Name: "Site", AdminEmail: "admin@example.com"},
			},
			want: email.Sender{Name: "Site", Email: "mailer@example.com"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.cfg.SenderDefaults(); got != tt.want {
				t.Errorf("SenderDefaults(): got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGraphConfigured(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		graph  GraphConfig
		expect bool
	}{
		{
			name:   "all set",
			graph:  GraphConfig{TenantID: "t", ClientID: "c", ClientSecret: "s", Sender: "sender@example.com"},
			expect: true,
		},
		{
			name:   "missing client_secret",
			graph:  GraphConfig{TenantID: "t", ClientID: "c", Sender: "sender@example.com"},
			expect: false,
		},
		{
			name:   "none set",
			graph:  GraphConfig{},
			expect: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &Config{Graph: tt.graph}
			if got := cfg.GraphConfigured(); got != tt.expect {
				t.Errorf("GraphConfigured(): got %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestAuthEnabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		password string
		expect   bool
	}{
		{name: "both set", username: "user", password: "pass", expect: true},
		{name: "username only", username: "user", password: "", expect: false},
		{name: "password only", username: "", password: "pass", expect: false},
		{name: "neither set", username: "", password: "", expect: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &Config{HTTP: HTTPConfig{Username: tt.username, Password: tt.password}}
			if got := cfg.AuthEnabled(); got != tt.expect {
				t.Errorf("AuthEnabled(): got %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	yamlContent := `
simplemail:
  api_key: "yaml-key"
  sender_email: "yaml@example.com"
  timeout: 10s
  check_status: true
site:
  name: "YAML Site"
  admin_email: "admin@yaml.example"
debug:
  enabled: true
  log: true
http:
  listen: ":3025"
fallback: graph
graph:
  tenant_id: "yaml-tenant"
  client_id: "yaml-client"
  client_secret: "yaml-secret"
  sender: "yaml@example.com"
logging:
  level: "warn"
`

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	clearEnv(t)

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SimpleMail.APIKey != "yaml-key" {
		t.Errorf("SimpleMail.APIKey: got %q, want %q", cfg.SimpleMail.APIKey, "yaml-key")
	}
	if cfg.SimpleMail.Timeout != 10*time.Second {
		t.Errorf("SimpleMail.Timeout: got %v, want 10s", cfg.SimpleMail.Timeout)
	}
	if !cfg.SimpleMail.CheckStatus {
		t.Error("SimpleMail.CheckStatus: got false, want true")
	}
	if cfg.Site.Name != "YAML Site" {
		t.Errorf("Site.Name: got %q, want %q", cfg.Site.Name, "YAML Site")
	}
	if !cfg.Debug.Enabled || !cfg.Debug.Log {
		t.Errorf("Debug: got %+v", cfg.Debug)
	}
	if cfg.HTTP.Listen != ":3025" {
		t.Errorf("HTTP.Listen: got %q, want %q", cfg.HTTP.Listen, ":3025")
	}
	if cfg.Fallback != "graph" {
		t.Errorf("Fallback: got %q, want %q", cfg.Fallback, "graph")
	}
	if !cfg.GraphConfigured() {
		t.Error("GraphConfigured: got false, want true")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "warn")
	}
}

func TestLoadFromFile_EnvOverridesYAML(t *testing.T) {
	yamlContent := `
simplemail:
  api_key: "yaml-key"
http:
  listen: ":3025"
logging:
  level: "warn"
`

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	clearEnv(t)
	t.Setenv("SIMPLEMAIL_API_KEY", "env-key")
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SimpleMail.APIKey != "env-key" {
		t.Errorf("SimpleMail.APIKey: got %q, want %q (env override)", cfg.SimpleMail.APIKey, "env-key")
	}
	if cfg.HTTP.Listen != ":3025" {
		t.Errorf("HTTP.Listen: got %q, want %q (from YAML)", cfg.HTTP.Listen, ":3025")
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level: got %q, want %q (env override)", cfg.Logging.Level, "error")
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(configPath, []byte("simplemail: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	if _, err := LoadFromFile(configPath); err == nil {
		t.Fatal("expected error for invalid YAML, got nil")
	}
}
