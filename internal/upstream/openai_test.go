package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"counsel-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkLine(content string) string {
	return fmt.Sprintf(`data: {"id":"1","object":"chat.completion.chunk","created":1,"model":"test","choices":[{"index":0,"delta":{"content":%q}}]}`+"\n\n", content)
}

func TestOpenAIAdapterStream(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")

		fmt.Fprint(w, chunkLine("Hel"))
		fmt.Fprint(w, chunkLine("lo"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer ts.Close()

	adapter := newOpenAIAdapter(config.OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: ts.URL + "/v1",
		Model:   "test",
		Timeout: 5 * time.Second,
	})

	reader, err := adapter.Stream(context.Background(), &Request{Prompt: "p"})
	require.NoError(t, err)

	content, err := drain(t, reader)
	require.NoError(t, err)
	assert.Equal(t, "Hello", content)
}

func TestOpenAIAdapterGenerate(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","created":1,"model":"test","choices":[{"index":0,"message":{"role":"assistant","content":"full answer"},"finish_reason":"stop"}]}`)
	}))
	defer ts.Close()

	adapter := newOpenAIAdapter(config.OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: ts.URL + "/v1",
		Model:   "test",
	})

	content, err := adapter.Generate(context.Background(), &Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "full answer", content)
}

func TestNewAdapterProviderSwitch(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Model.Provider = "openai"
	adapter, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "openai", adapter.Name())

	cfg.Model.Provider = "local"
	adapter, err = New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "local", adapter.Name())

	cfg.Model.Provider = "nope"
	_, err = New(cfg)
	require.Error(t, err)
}
