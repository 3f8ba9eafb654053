package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/tomokana225/schedule-planning/internal/assistant"
	"github.com/tomokana225/schedule-planning/internal/calsync"
	"github.com/tomokana225/schedule-planning/internal/dateutil"
	"github.com/tomokana225/schedule-planning/internal/llm"
	"github.com/tomokana225/schedule-planning/internal/planner"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Store drivers.
const (
	StoreDriverMemory = "memory"
	StoreDriverSQLite = "sqlite"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Auth      AuthConfig        `yaml:"auth"`
	Assistant AssistantConfig   `yaml:"assistant"`
	Provider  ProviderConfig    `yaml:"provider"`
	Store     StoreConfig       `yaml:"store"`
	Seed      SeedConfig        `yaml:"seed"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Assistant.Validate(); err != nil {
		return fmt.Errorf("assistant: %w", err)
	}
	if err := c.Provider.Validate(); err != nil {
		return fmt.Errorf("provider: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	Timezone string     `yaml:"timezone"`
	Locale   string     `yaml:"locale"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Timezone, validation.By(func(any) error {
			_, err := c.Location()
			return err
		})),
		validation.Field(&c.Locale, validation.In(string(dateutil.LocaleJapanese), string(dateutil.LocaleEnglish))),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// Location resolves Timezone. Empty means the host's local zone.
func (c *ApplicationConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// AssistantConfig selects the language model behind the assistant.
// An empty APIKey falls back to the provider's environment variable.
// BaseURL applies to openai and ollama only.
type AssistantConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Validate validates the assistant configuration.
func (c *AssistantConfig) Validate() error {
	providers := make([]any, 0, len(llm.Providers))
	for _, p := range llm.Providers {
		providers = append(providers, string(p))
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.In(providers...)),
		validation.Field(&c.BaseURL, is.URL,
			validation.When(c.Provider == "" || c.Provider == string(llm.ProviderGemini),
				validation.Empty.Error("not supported by the gemini provider"))),
		validation.Field(&c.Temperature, validation.Min(0.0), validation.Max(2.0)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// LLMOptions returns the model client options.
func (c *AssistantConfig) LLMOptions() llm.Options {
	return llm.Options{
		Provider: llm.Provider(c.Provider),
		Model:    c.Model,
		BaseURL:  c.BaseURL,
		APIKey:   c.APIKey,
	}
}

// BridgeOptions returns the bridge tuning options.
func (c *AssistantConfig) BridgeOptions() []assistant.BridgeOption {
	opts := []assistant.BridgeOption{assistant.WithTemperature(c.Temperature)}
	if c.Model != "" {
		opts = append(opts, assistant.WithModel(c.Model))
	}
	if c.Timeout > 0 {
		opts = append(opts, assistant.WithTimeout(c.Timeout))
	}
	return opts
}

// ProviderConfig holds the external calendar provider credentials. Without a
// client id the simulated provider is used.
type ProviderConfig struct {
	ClientID         string        `yaml:"client_id"`
	ClientSecret     string        `yaml:"client_secret"`
	APIKey           string        `yaml:"api_key"`
	TokenFile        string        `yaml:"token_file"`
	RedirectPort     int           `yaml:"redirect_port"`
	SimulatedLatency time.Duration `yaml:"simulated_latency"`
	PageSize         int64         `yaml:"page_size"`
}

// Validate validates the provider configuration.
func (c *ProviderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ClientSecret, validation.When(c.ClientID != "", validation.Required)),
		validation.Field(&c.RedirectPort, validation.Min(0), validation.Max(65535)),
		validation.Field(&c.SimulatedLatency, validation.Min(time.Duration(0))),
		validation.Field(&c.PageSize, validation.Min(int64(0)), validation.Max(int64(2500))),
	)
}

// Session builds the adapter session for loc.
func (c *ProviderConfig) Session(loc *time.Location) calsync.Session {
	return calsync.Session{
		ClientID:         c.ClientID,
		ClientSecret:     c.ClientSecret,
		APIKey:           c.APIKey,
		TokenFile:        c.TokenFile,
		RedirectPort:     c.RedirectPort,
		SimulatedLatency: c.SimulatedLatency,
		PageSize:         c.PageSize,
		Location:         loc,
	}.WithDefaults()
}

// StoreConfig selects the event store backend. An empty sqlite DSN opens a
// shared in-memory database.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = StoreDriverMemory
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.In(StoreDriverMemory, StoreDriverSQLite)),
		validation.Field(&c.DSN, validation.When(c.Driver == StoreDriverMemory, validation.Empty.Error("only used by the sqlite driver"))),
	)
}

// SeedConfig controls the events loaded at startup.
type SeedConfig struct {
	Mock bool   `yaml:"mock"`
	File string `yaml:"file"`
}

// Planner converts the seed section.
func (c SeedConfig) Planner() planner.SeedConfig {
	return planner.SeedConfig{Mock: c.Mock, File: c.File}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			Locale:   string(dateutil.LocaleJapanese),
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Assistant: AssistantConfig{
			Provider:    string(llm.ProviderGemini),
			Model:       llm.DefaultGeminiModel,
			Temperature: assistant.DefaultTemperature,
			Timeout:     60 * time.Second,
		},
		Provider: ProviderConfig{
			TokenFile:        calsync.DefaultTokenFile,
			RedirectPort:     calsync.DefaultRedirectPort,
			SimulatedLatency: calsync.DefaultSimulatedLatency,
			PageSize:         calsync.DefaultPageSize,
		},
		Store: StoreConfig{
			Driver: StoreDriverMemory,
		},
		Seed: SeedConfig{
			Mock: true,
		},
	}
}
