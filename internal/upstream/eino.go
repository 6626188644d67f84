package upstream

import (
	"context"
	"fmt"

	"counsel-backend/internal/config"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// einoAdapter 复用 eino ChatModel 的提供方（doubao/ark、qwen）。
// ChatModel.Stream 本身就返回归一后的分片流，无需额外搬运。
type einoAdapter struct {
	name      string
	chatModel einoModel.ChatModel
}

func newArkAdapter(cfg config.DoubaoConfig) (*einoAdapter, error) {
	chatModel, err := ark.NewChatModel(context.Background(), &ark.ChatModelConfig{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("create ark model: %w", err)
	}

	return &einoAdapter{name: "doubao", chatModel: chatModel}, nil
}

func newQwenAdapter(cfg config.QwenConfig) (*einoAdapter, error) {
	chatModel, err := qwen.NewChatModel(context.Background(), &qwen.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   &cfg.MaxTokens,
		Temperature: &cfg.Temperature,
		TopP:        &cfg.TopP,
		Timeout:     cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create qwen model: %w", err)
	}

	return &einoAdapter{name: "qwen", chatModel: chatModel}, nil
}

func (a *einoAdapter) Name() string {
	return a.name
}

func (a *einoAdapter) Stream(ctx context.Context, req *Request) (*schema.StreamReader[*schema.Message], error) {
	reader, err := a.chatModel.Stream(ctx, req.messages())
	if err != nil {
		return nil, fmt.Errorf("%s stream: %w", a.name, err)
	}
	return reader, nil
}

func (a *einoAdapter) Generate(ctx context.Context, req *Request) (string, error) {
	ctx, cancel := req.timeoutContext(ctx)
	defer cancel()

	msg, err := a.chatModel.Generate(ctx, req.messages())
	if err != nil {
		return "", fmt.Errorf("%s generate: %w", a.name, err)
	}
	return msg.Content, nil
}
