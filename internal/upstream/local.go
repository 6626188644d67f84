package upstream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"counsel-backend/internal/config"
	"counsel-backend/pkg/logger"

	"github.com/cloudwego/eino/schema"
)

// localAdapter 行分隔 JSON 线格式的本地提供方（Ollama 风格 /api/generate）。
// 单行解析失败只跳过该帧，不终止整个流。
type localAdapter struct {
	baseURL string
	model   string
	client  *http.Client
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type generateLine struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func newLocalAdapter(cfg config.LocalConfig) *localAdapter {
	return &localAdapter{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (a *localAdapter) Name() string {
	return "local"
}

func (a *localAdapter) Stream(ctx context.Context, req *Request) (*schema.StreamReader[*schema.Message], error) {
	resp, err := a.post(ctx, req, true)
	if err != nil {
		return nil, err
	}

	reader, writer := schema.Pipe[*schema.Message](64)

	go func() {
		defer writer.Close()
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			var frame generateLine
			if err := json.Unmarshal(line, &frame); err != nil {
				// 坏帧跳过，保住已生成的内容
				logger.Warnf("本地提供方坏帧已跳过: %v", err)
				continue
			}

			if frame.Error != "" {
				writer.Send(nil, fmt.Errorf("upstream error: %s", frame.Error))
				return
			}
			if frame.Response != "" {
				msg := &schema.Message{Role: schema.Assistant, Content: frame.Response}
				if closed := writer.Send(msg, nil); closed {
					return
				}
			}
			if frame.Done {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			writer.Send(nil, fmt.Errorf("upstream stream: %w", err))
		}
	}()

	return reader, nil
}

func (a *localAdapter) Generate(ctx context.Context, req *Request) (string, error) {
	ctx, cancel := req.timeoutContext(ctx)
	defer cancel()

	resp, err := a.post(ctx, req, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out generateLine
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return "", errors.New(out.Error)
	}
	return out.Response, nil
}

func (a *localAdapter) post(ctx context.Context, req *Request, stream bool) (*http.Response, error) {
	body, err := json.Marshal(generateRequest{
		Model:  a.model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: stream,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	return resp, nil
}
