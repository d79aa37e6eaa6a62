// Package llm provides the language model collaborator used by the
// orchestrator. Every provider is reduced to a single operation: send a prompt,
// get text back.
//
// Ollama and Anthropic are reached through langchaingo; OpenAI and Groq
// (which speaks the OpenAI protocol) through go-openai. New wraps the chosen
// provider with rate limiting, per-call timeouts, logging, and metrics.
//
// IMPORTANT: This package may import internal/constants, internal/errors, and
// internal/metrics. It MUST NOT import internal/orchestrator or internal/cli.
package llm

import (
	"context"
	"io"
	"time"
)

// Provider names accepted in configuration.
const (
	ProviderOllama = "ollama"
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
)

// defaultMaxTokens is used when a provider requires a token limit and none is configured.
const defaultMaxTokens = 4096

// Generator turns a prompt into a completion.
type Generator interface {
	// Generate sends prompt to the model and returns its full reply.
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Config selects and configures a provider.
type Config struct {
	// Provider is one of ollama, claude, openai, groq.
	Provider string
	// Model is the provider-specific model name.
	Model string
	// BaseURL overrides the provider endpoint.
	BaseURL string
	// APIKey authenticates with hosted providers. Ollama ignores it.
	APIKey string
	// Temperature is passed through when non-zero.
	Temperature float64
	// MaxTokens caps the reply length when non-zero.
	MaxTokens int
	// Timeout bounds one request. Zero means no limit beyond ctx.
	Timeout time.Duration
	// RequestsPerMinute throttles requests. Zero disables throttling.
	RequestsPerMinute float64
	// Stream receives reply chunks as they arrive. Nil disables streaming.
	Stream io.Writer
}
