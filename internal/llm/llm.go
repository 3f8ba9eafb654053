// Package llm builds the language model backends the assistant talks to.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider names a supported model backend.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
)

// Providers lists every supported backend.
var Providers = []Provider{ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderOllama}

// DefaultGeminiModel is used when no model is configured for gemini.
const DefaultGeminiModel = "gemini-2.5-flash"

// ErrNotConfigured is returned when a hosted provider has no credentials.
var ErrNotConfigured = errors.New("language model not configured")

// ErrBaseURLUnsupported is returned when a base URL is set for a provider
// whose client cannot be pointed at another endpoint.
var ErrBaseURLUnsupported = errors.New("base url not supported")

// Generator is the part of llms.Model the assistant needs.
type Generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Options selects and authenticates a backend. An empty APIKey falls back to
// the provider's conventional environment variable.
type Options struct {
	Provider Provider
	Model    string
	BaseURL  string
	APIKey   string
}

// New returns a Generator for opts.Provider.
func New(ctx context.Context, opts Options) (Generator, error) {
	switch opts.Provider {
	case ProviderGemini, "":
		return newGemini(ctx, opts)
	case ProviderOpenAI:
		return newOpenAI(opts)
	case ProviderAnthropic:
		return newAnthropic(opts)
	case ProviderOllama:
		return newOllama(opts)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", opts.Provider)
	}
}

func apiKey(configured string, envs ...string) string {
	if configured != "" {
		return configured
	}
	for _, name := range envs {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func newGemini(ctx context.Context, opts Options) (Generator, error) {
	if opts.BaseURL != "" {
		return nil, fmt.Errorf("gemini: %w", ErrBaseURLUnsupported)
	}
	key := apiKey(opts.APIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("gemini: %w", ErrNotConfigured)
	}
	model := opts.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := googleai.New(ctx,
		googleai.WithAPIKey(key),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return client, nil
}

func newOpenAI(opts Options) (Generator, error) {
	key := apiKey(opts.APIKey, "OPENAI_API_KEY")
	if key == "" && opts.BaseURL == "" {
		return nil, fmt.Errorf("openai: %w", ErrNotConfigured)
	}
	oopts := []openai.Option{openai.WithModel(opts.Model)}
	if opts.BaseURL != "" {
		oopts = append(oopts, openai.WithBaseURL(opts.BaseURL))
	}
	if key != "" {
		oopts = append(oopts, openai.WithToken(key))
	}
	client, err := openai.New(oopts...)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	return client, nil
}

func newAnthropic(opts Options) (Generator, error) {
	key := apiKey(opts.APIKey, "ANTHROPIC_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("anthropic: %w", ErrNotConfigured)
	}
	client, err := anthropic.New(anthropic.WithModel(opts.Model), anthropic.WithToken(key))
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	return client, nil
}

func newOllama(opts Options) (Generator, error) {
	var oopts []ollama.Option
	if opts.Model != "" {
		oopts = append(oopts, ollama.WithModel(opts.Model))
	}
	if opts.BaseURL != "" {
		oopts = append(oopts, ollama.WithServerURL(opts.BaseURL))
	}
	client, err := ollama.New(oopts...)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	return client, nil
}
