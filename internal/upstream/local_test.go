package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"counsel-backend/internal/config"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, reader *schema.StreamReader[*schema.Message]) (string, error) {
	t.Helper()
	defer reader.Close()

	var content string
	for {
		msg, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			return content, nil
		}
		if err != nil {
			return content, err
		}
		content += msg.Content
	}
}

func newLocalTestAdapter(baseURL string) *localAdapter {
	return newLocalAdapter(config.LocalConfig{
		BaseURL: baseURL,
		Model:   "test-model",
		Timeout: 5 * time.Second,
	})
}

func TestLocalAdapterStream(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		fmt.Fprintln(w, `{"response":"Hello, "}`)
		fmt.Fprintln(w, `{"response":"world."}`)
		fmt.Fprintln(w, `{"done":true}`)
	}))
	defer ts.Close()

	adapter := newLocalTestAdapter(ts.URL)
	reader, err := adapter.Stream(context.Background(), &Request{Prompt: "p"})
	require.NoError(t, err)

	content, err := drain(t, reader)
	require.NoError(t, err)
	assert.Equal(t, "Hello, world.", content)
}

func TestLocalAdapterSkipsMalformedFrames(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":"good "}`)
		fmt.Fprintln(w, `{not valid json`)
		fmt.Fprintln(w, `{"response":"frames"}`)
		fmt.Fprintln(w, `{"done":true}`)
	}))
	defer ts.Close()

	adapter := newLocalTestAdapter(ts.URL)
	reader, err := adapter.Stream(context.Background(), &Request{Prompt: "p"})
	require.NoError(t, err)

	// 坏帧只跳过自己，流继续
	content, err := drain(t, reader)
	require.NoError(t, err)
	assert.Equal(t, "good frames", content)
}

func TestLocalAdapterErrorFrame(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":"partial"}`)
		fmt.Fprintln(w, `{"error":"model exploded"}`)
	}))
	defer ts.Close()

	adapter := newLocalTestAdapter(ts.URL)
	reader, err := adapter.Stream(context.Background(), &Request{Prompt: "p"})
	require.NoError(t, err)

	content, err := drain(t, reader)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model exploded")
	assert.Equal(t, "partial", content)
}

func TestLocalAdapterBadStatus(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	adapter := newLocalTestAdapter(ts.URL)
	_, err := adapter.Stream(context.Background(), &Request{Prompt: "p"})
	require.Error(t, err)
}

func TestLocalAdapterGenerate(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":"complete answer","done":true}`)
	}))
	defer ts.Close()

	adapter := newLocalTestAdapter(ts.URL)
	content, err := adapter.Generate(context.Background(), &Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "complete answer", content)
}

func TestLocalAdapterGenerateRequestTimeout(t *testing.T) {
	t.Parallel()

	blocked := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer ts.Close()
	defer close(blocked)

	// 请求级超时优先于适配器配置的 HTTP 超时
	adapter := newLocalTestAdapter(ts.URL)
	_, err := adapter.Generate(context.Background(),
		&Request{Prompt: "p", Timeout: 30 * time.Millisecond})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
