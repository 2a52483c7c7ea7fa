package scriptmate

import (
	"time"

	"go.uber.org/zap"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultMaxTokens   = 2048
	defaultTemperature = 0.2
	defaultTimeout     = 120 * time.Second
)

type clientConfig struct {
	indexPath   string
	apiKey      string
	baseURL     string
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	logger      *zap.Logger
}

// Option configures the Client.
type Option func(*clientConfig)

// WithIndexPath sets the path of the kOS doc index JSON file. Required.
func WithIndexPath(path string) Option {
	return func(c *clientConfig) { c.indexPath = path }
}

// WithAPIKey sets the model service API key. Required.
func WithAPIKey(key string) Option {
	return func(c *clientConfig) { c.apiKey = key }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint other than
// the provider default.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) { c.baseURL = url }
}

// WithModel overrides the default model name.
func WithModel(name string) Option {
	return func(c *clientConfig) { c.model = name }
}

// WithTemperature overrides the default sampling temperature.
func WithTemperature(t float32) Option {
	return func(c *clientConfig) { c.temperature = t }
}

// WithMaxTokens overrides the default response token cap.
func WithMaxTokens(n int) Option {
	return func(c *clientConfig) { c.maxTokens = n }
}

// WithTimeout overrides the default per-request model timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.timeout = d }
}

// WithLogger attaches a zap logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}
