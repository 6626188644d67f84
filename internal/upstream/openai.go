package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"counsel-backend/internal/config"

	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"
)

// openaiAdapter 兼容 OpenAI 线格式的提供方
type openaiAdapter struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

func newOpenAIAdapter(cfg config.OpenAIConfig) *openaiAdapter {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &openaiAdapter{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (a *openaiAdapter) Name() string {
	return "openai"
}

func (a *openaiAdapter) Stream(ctx context.Context, req *Request) (*schema.StreamReader[*schema.Message], error) {
	stream, err := a.client.CreateChatCompletionStream(ctx, a.completionRequest(req, true))
	if err != nil {
		return nil, fmt.Errorf("create completion stream: %w", err)
	}

	reader, writer := schema.Pipe[*schema.Message](64)

	// 把 OpenAI stream 搬运进统一的分片流
	go func() {
		defer writer.Close()
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				// 流中断只上报一次，之后不再有 complete
				writer.Send(nil, fmt.Errorf("upstream stream: %w", err))
				return
			}

			if len(response.Choices) == 0 || response.Choices[0].Delta.Content == "" {
				continue
			}

			msg := &schema.Message{
				Role:    schema.Assistant,
				Content: response.Choices[0].Delta.Content,
			}
			if closed := writer.Send(msg, nil); closed {
				return
			}
		}
	}()

	return reader, nil
}

func (a *openaiAdapter) Generate(ctx context.Context, req *Request) (string, error) {
	ctx, cancel := req.timeoutContext(ctx)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(ctx, a.completionRequest(req, false))
	if err != nil {
		return "", fmt.Errorf("create completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from upstream")
	}
	return resp.Choices[0].Message.Content, nil
}

func (a *openaiAdapter) completionRequest(req *Request, stream bool) openai.ChatCompletionRequest {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = a.maxTokens
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = a.temperature
	}

	return openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Stream:      stream,
	}
}
