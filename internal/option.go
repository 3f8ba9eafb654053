package internal

import (
	"io"

	"github.com/tomokana225/schedule-planning/internal/assistant"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	version   string
	logOutput io.Writer
	asker     assistant.Asker
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithVersion sets the version reported by the tool server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithLogOutput redirects the JSON log. The stdio tool server needs stdout
// for the protocol, so it logs to stderr.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}

// WithAsker replaces the configured language model bridge, for example with
// a remote /api/chat endpoint.
func WithAsker(asker assistant.Asker) Option {
	return func(a *application) {
		a.asker = asker
	}
}
