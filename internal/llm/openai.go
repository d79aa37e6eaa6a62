package llm

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/mrz1836/nemo/internal/constants"
	"github.com/mrz1836/nemo/internal/errors"
)

// openaiGenerator talks to OpenAI-compatible chat completion endpoints.
type openaiGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	stream      io.Writer
}

func newOpenAI(cfg Config) (Generator, error) {
	return newOpenAICompatible(ProviderOpenAI, cfg, "")
}

func newGroq(cfg Config) (Generator, error) {
	return newOpenAICompatible(ProviderGroq, cfg, constants.DefaultGroqURL)
}

func newOpenAICompatible(provider string, cfg Config, defaultURL string) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s", errors.ErrMissingAPIKey, provider)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	switch {
	case cfg.BaseURL != "":
		clientCfg.BaseURL = cfg.BaseURL
	case defaultURL != "":
		clientCfg.BaseURL = defaultURL
	}

	return &openaiGenerator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
		stream:      cfg.Stream,
	}, nil
}

func (g *openaiGenerator) request(prompt string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature:         g.temperature,
		MaxCompletionTokens: g.maxTokens,
	}
}

// Generate implements Generator.
func (g *openaiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.stream != nil {
		return g.generateStream(ctx, prompt)
	}

	resp, err := g.client.CreateChatCompletion(ctx, g.request(prompt))
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", stderrors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *openaiGenerator) generateStream(ctx context.Context, prompt string) (string, error) {
	req := g.request(prompt)
	req.Stream = true

	stream, err := g.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion stream failed: %w", err)
	}
	defer func() { _ = stream.Close() }()

	var b strings.Builder
	for {
		resp, err := stream.Recv()
		if stderrors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			return "", fmt.Errorf("chat completion stream failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		chunk := resp.Choices[0].Delta.Content
		b.WriteString(chunk)
		_, _ = io.WriteString(g.stream, chunk)
	}
}
