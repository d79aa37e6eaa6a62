package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/nemo/internal/errors"
	"github.com/mrz1836/nemo/internal/metrics"
)

// Client is the Generator the orchestrator uses. It bounds each call with the
// configured timeout, records metrics, and maps every provider failure to
// errors.ErrLLMUnavailable.
type Client struct {
	next     Generator
	provider string
	model    string
	timeout  time.Duration
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// New builds the configured provider from the default registry and wraps it.
func New(cfg Config, logger zerolog.Logger, m *metrics.Metrics) (*Client, error) {
	return NewFromRegistry(DefaultRegistry(), cfg, logger, m)
}

// NewFromRegistry is New with an explicit registry.
func NewFromRegistry(r *Registry, cfg Config, logger zerolog.Logger, m *metrics.Metrics) (*Client, error) {
	gen, err := r.Build(cfg)
	if err != nil {
		return nil, err
	}
	return Wrap(WithRateLimit(gen, cfg.RequestsPerMinute), cfg, logger, m), nil
}

// Wrap decorates an existing Generator with timeout, logging, metrics, and
// error mapping.
func Wrap(next Generator, cfg Config, logger zerolog.Logger, m *metrics.Metrics) *Client {
	return &Client{
		next:     next,
		provider: cfg.Provider,
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		logger:   logger.With().Str("component", "llm").Str("provider", cfg.Provider).Logger(),
		metrics:  m,
	}
}

// Generate implements Generator.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.logger.Debug().Str("model", c.model).Int("prompt_chars", len(prompt)).Msg("sending prompt")

	start := time.Now()
	reply, err := c.next.Generate(ctx, prompt)
	elapsed := time.Since(start)
	c.metrics.LLMRequest(c.provider, elapsed, err)

	if err != nil {
		c.logger.Error().Err(err).Str("model", c.model).Dur("duration", elapsed).Msg("language model request failed")
		return "", fmt.Errorf("%w: %s: %w", errors.ErrLLMUnavailable, c.provider, err)
	}

	c.logger.Debug().
		Str("model", c.model).
		Dur("duration", elapsed).
		Int("reply_chars", len(reply)).
		Msg("received reply")
	return reply, nil
}

// Ensure Client implements Generator.
var _ Generator = (*Client)(nil)
