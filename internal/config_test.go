package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomokana225/schedule-planning/internal/calsync"
	"github.com/tomokana225/schedule-planning/internal/llm"
	pkgconfig "github.com/tomokana225/schedule-planning/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
	if cfg.Store.Driver != StoreDriverMemory || !cfg.Seed.Mock {
		t.Errorf("defaults = %+v %+v", cfg.Store, cfg.Seed)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.App.HTTP.Port = 0 }},
		{"bad timezone", func(c *Config) { c.App.Timezone = "Mars/Olympus" }},
		{"bad locale", func(c *Config) { c.App.Locale = "fr-FR" }},
		{"unknown model provider", func(c *Config) { c.Assistant.Provider = "watson" }},
		{"bad base url", func(c *Config) {
			c.Assistant.Provider = string(llm.ProviderOpenAI)
			c.Assistant.BaseURL = "not a url"
		}},
		{"base url with gemini", func(c *Config) { c.Assistant.BaseURL = "http://localhost:8081" }},
		{"base url with default provider", func(c *Config) {
			c.Assistant.Provider = ""
			c.Assistant.BaseURL = "http://localhost:8081"
		}},
		{"temperature too high", func(c *Config) { c.Assistant.Temperature = 3 }},
		{"client id without secret", func(c *Config) { c.Provider.ClientID = "id" }},
		{"unknown store driver", func(c *Config) { c.Store.Driver = "postgres" }},
		{"dsn with memory driver", func(c *Config) { c.Store.DSN = "planner.db" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestBaseURLAllowedForSelfHostedProviders(t *testing.T) {
	for _, p := range []llm.Provider{llm.ProviderOpenAI, llm.ProviderOllama} {
		cfg := NewDefaultConfig()
		cfg.Assistant.Provider = string(p)
		cfg.Assistant.BaseURL = "http://localhost:11434"
		if err := cfg.Validate(); err != nil {
			t.Errorf("%s: %v", p, err)
		}
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_PROVIDER_SECRET", "s3cret")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  log_level: debug
  timezone: UTC
  locale: en-US
  http:
    port: 9090
assistant:
  provider: ollama
  model: llama3
  base_url: http://localhost:11434
  timeout: 30s
provider:
  client_id: abc.apps.googleusercontent.com
  client_secret: ${TEST_PROVIDER_SECRET}
  simulated_latency: 10ms
store:
  driver: sqlite
  dsn: planner.db
seed:
  mock: false
  file: seed.yaml
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.HTTP.Address() != ":9090" {
		t.Errorf("address = %q", cfg.App.HTTP.Address())
	}
	if cfg.Provider.ClientSecret != "s3cret" {
		t.Errorf("secret = %q, want expanded env", cfg.Provider.ClientSecret)
	}
	if cfg.Assistant.Timeout != 30*time.Second {
		t.Errorf("timeout = %v", cfg.Assistant.Timeout)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Provider.RedirectPort != calsync.DefaultRedirectPort {
		t.Errorf("redirect port = %d", cfg.Provider.RedirectPort)
	}
	if cfg.Seed.Mock || cfg.Seed.File != "seed.yaml" {
		t.Errorf("seed = %+v", cfg.Seed)
	}

	loc, err := cfg.App.Location()
	if err != nil {
		t.Fatal(err)
	}
	session := cfg.Provider.Session(loc)
	if !session.Real() || session.SimulatedLatency != 10*time.Millisecond || session.Location != loc {
		t.Errorf("session = %+v", session)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("store:\n  driver: postgres\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := pkgconfig.Load(path, NewDefaultConfig()); err == nil {
		t.Fatal("unknown driver should fail")
	}
}
