package llm

import (
	"context"
	"fmt"
	"io"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/mrz1836/nemo/internal/constants"
	"github.com/mrz1836/nemo/internal/errors"
)

// langchainGenerator drives any langchaingo model.
type langchainGenerator struct {
	model  llms.Model
	opts   []llms.CallOption
	stream io.Writer
}

func newLangchainGenerator(model llms.Model, cfg Config) *langchainGenerator {
	var opts []llms.CallOption
	if cfg.Temperature != 0 {
		opts = append(opts, llms.WithTemperature(cfg.Temperature))
	}
	if cfg.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(cfg.MaxTokens))
	}
	return &langchainGenerator{model: model, opts: opts, stream: cfg.Stream}
}

// Generate implements Generator.
func (g *langchainGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	opts := g.opts
	if g.stream != nil {
		w := g.stream
		opts = append(opts[:len(opts):len(opts)], llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			_, err := w.Write(chunk)
			return err
		}))
	}
	return llms.GenerateFromSinglePrompt(ctx, g.model, prompt, opts...)
}

func newOllama(cfg Config) (Generator, error) {
	url := cfg.BaseURL
	if url == "" {
		url = constants.DefaultOllamaURL
	}
	model, err := ollama.New(ollama.WithModel(cfg.Model), ollama.WithServerURL(url))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return newLangchainGenerator(model, cfg), nil
}

func newAnthropic(cfg Config) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s", errors.ErrMissingAPIKey, ProviderClaude)
	}
	opts := []anthropic.Option{anthropic.WithModel(cfg.Model), anthropic.WithToken(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	model, err := anthropic.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create anthropic client: %w", err)
	}
	// The Messages API requires max_tokens.
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return newLangchainGenerator(model, cfg), nil
}
