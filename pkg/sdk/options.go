package sdk

import "time"

// SchemaMajor is the flowgate://schema major version this package speaks.
const SchemaMajor = "1"

type clientConfig struct {
	callTimeout   time.Duration
	queryAttempts int
	queryBackoff  time.Duration
	strict        bool
}

// Option configures a Client.
type Option func(*clientConfig)

func newClientConfig(opts []Option) clientConfig {
	cfg := clientConfig{
		callTimeout:   30 * time.Second,
		queryAttempts: 3,
		queryBackoff:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.queryAttempts < 1 {
		cfg.queryAttempts = 1
	}
	return cfg
}

// WithCallTimeout bounds each MCP request.
func WithCallTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.callTimeout = d }
}

// WithQueryRetry sets how often read-only calls are attempted and the first
// backoff delay. State-changing calls are never retried.
func WithQueryRetry(attempts int, backoff time.Duration) Option {
	return func(c *clientConfig) {
		c.queryAttempts = attempts
		c.queryBackoff = backoff
	}
}

// WithStrictGates makes state-changing calls return a *BlockedError instead
// of a Reply when the server refuses an action.
func WithStrictGates() Option {
	return func(c *clientConfig) { c.strict = true }
}
