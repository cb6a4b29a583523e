package rdw

import (
	"strings"
	"time"

	"github.com/samvad-hq/openoverheid/pkg/opendata"
)

// Logger is the logging surface shared with the requester.
type Logger = opendata.Logger

// Option configures the clients in this package.
type Option func(*config)

type config struct {
	baseURL string
	log     Logger
	timeout time.Duration
}

// WithBaseURL overrides the dataset endpoint, e.g. for a mirror or a test server.
func WithBaseURL(u string) Option {
	return func(c *config) {
		if u = strings.TrimSpace(u); u != "" {
			c.baseURL = u
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log Logger) Option {
	return func(c *config) { c.log = opendata.EnsureLogger(log) }
}

// WithTimeout sets the timeout of an owned HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

func buildConfig(opts []Option) config {
	cfg := config{baseURL: DefaultBaseURL, log: opendata.EnsureLogger(nil)}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (c config) requesterOptions() []opendata.Option {
	return []opendata.Option{
		opendata.WithLogger(c.log),
		opendata.WithTimeout(c.timeout),
	}
}
