package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	nemoerrors "github.com/mrz1836/nemo/internal/errors"
	"github.com/mrz1836/nemo/internal/metrics"
	"github.com/mrz1836/nemo/internal/testutil"
)

// fakeModel is a langchaingo model that replies with fixed chunks.
type fakeModel struct {
	chunks []string
	err    error
	prompt string
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}
	if len(messages) > 0 && len(messages[0].Parts) > 0 {
		if text, ok := messages[0].Parts[0].(llms.TextContent); ok {
			m.prompt = text.Text
		}
	}
	var full string
	for _, c := range m.chunks {
		if opts.StreamingFunc != nil {
			if err := opts.StreamingFunc(ctx, []byte(c)); err != nil {
				return nil, err
			}
		}
		full += c
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: full}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestLangchainGenerator(t *testing.T) {
	t.Parallel()

	t.Run("returns the full reply", func(t *testing.T) {
		t.Parallel()
		model := &fakeModel{chunks: []string{"<<<main.py>>>\n", "x = 1\n", "<<<end>>>"}}
		gen := newLangchainGenerator(model, Config{})

		got, err := gen.Generate(context.Background(), "write code")
		require.NoError(t, err)
		assert.Equal(t, "<<<main.py>>>\nx = 1\n<<<end>>>", got)
		assert.Equal(t, "write code", model.prompt)
	})

	t.Run("streams chunks to the writer", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		gen := newLangchainGenerator(&fakeModel{chunks: []string{"VA", "LID"}}, Config{Stream: &out, Temperature: 0.2, MaxTokens: 100})

		got, err := gen.Generate(context.Background(), "review")
		require.NoError(t, err)
		assert.Equal(t, "VALID", got)
		assert.Equal(t, "VALID", out.String())
	})
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()
	assert.Equal(t, []string{ProviderClaude, ProviderGroq, ProviderOllama, ProviderOpenAI}, r.Providers())
	assert.True(t, r.Has(ProviderOllama))

	_, err := r.Build(Config{Provider: "palm"})
	require.ErrorIs(t, err, nemoerrors.ErrProviderNotFound)

	for _, provider := range []string{ProviderClaude, ProviderOpenAI, ProviderGroq} {
		_, err := r.Build(Config{Provider: provider, Model: "m"})
		require.ErrorIs(t, err, nemoerrors.ErrMissingAPIKey, provider)
	}

	gen, err := r.Build(Config{Provider: ProviderOllama, Model: "mistral-nemo"})
	require.NoError(t, err)
	assert.NotNil(t, gen)
}

func TestClient_WrapsFailures(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	boom := testutil.ErrMockConnectionRefused
	c := Wrap(GeneratorFunc(func(context.Context, string) (string, error) {
		return "", boom
	}), Config{Provider: ProviderOllama, Model: "mistral-nemo"}, zerolog.Nop(), m)

	_, err := c.Generate(context.Background(), "hi")
	require.ErrorIs(t, err, nemoerrors.ErrLLMUnavailable)
	require.ErrorIs(t, err, boom)
}

func TestClient_AppliesTimeout(t *testing.T) {
	t.Parallel()

	c := Wrap(GeneratorFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), Config{Provider: ProviderOllama, Timeout: 20 * time.Millisecond}, zerolog.Nop(), nil)

	_, err := c.Generate(context.Background(), "hi")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.ErrorIs(t, err, nemoerrors.ErrLLMUnavailable)
}

func TestNewFromRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register("echo", func(Config) (Generator, error) {
		return GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
			return "echo: " + prompt, nil
		}), nil
	})

	c, err := NewFromRegistry(r, Config{Provider: "echo", RequestsPerMinute: 6000}, zerolog.Nop(), nil)
	require.NoError(t, err)

	got, err := c.Generate(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "echo: ping", got)
}

func TestWithRateLimit(t *testing.T) {
	t.Parallel()

	calls := 0
	next := GeneratorFunc(func(context.Context, string) (string, error) {
		calls++
		return "ok", nil
	})

	_, limitedZero := WithRateLimit(next, 0).(*rateLimited)
	assert.False(t, limitedZero)

	limited := WithRateLimit(next, 1) // one request per minute
	_, err := limited.Generate(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = limited.Generate(ctx, "second")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func chatServer(t *testing.T, stream bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		if !stream {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":     "chatcmpl-1",
				"object": "chat.completion",
				"choices": []map[string]any{{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": "VALID"},
				}},
			})
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range []string{"IN", "VALID"} {
			payload, _ := json.Marshal(map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion.chunk",
				"choices": []map[string]any{{"index": 0, "delta": map[string]any{"content": chunk}}},
			})
			_, _ = fmt.Fprintf(w, "data: %s\n\n", payload)
		}
		_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func TestOpenAIGenerator(t *testing.T) {
	t.Parallel()

	t.Run("single response", func(t *testing.T) {
		t.Parallel()
		srv := chatServer(t, false)
		defer srv.Close()

		gen, err := newOpenAI(Config{APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: srv.URL + "/v1"})
		require.NoError(t, err)

		got, err := gen.Generate(context.Background(), "review")
		require.NoError(t, err)
		assert.Equal(t, "VALID", got)
	})

	t.Run("streamed response", func(t *testing.T) {
		t.Parallel()
		srv := chatServer(t, true)
		defer srv.Close()

		var out bytes.Buffer
		gen, err := newGroq(Config{APIKey: "test-key", Model: "llama3", BaseURL: srv.URL + "/v1", Stream: &out})
		require.NoError(t, err)

		got, err := gen.Generate(context.Background(), "review")
		require.NoError(t, err)
		assert.Equal(t, "INVALID", got)
		assert.Equal(t, "INVALID", out.String())
	})
}
