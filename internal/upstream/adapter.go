// Package upstream 把各提供方的流式线格式归一为统一的分片流：
// Recv 依次返回文本分片，io.EOF 表示生成完成，其余错误表示流中断。
package upstream

import (
	"context"
	"fmt"
	"time"

	"counsel-backend/internal/config"

	"github.com/cloudwego/eino/schema"
)

// Request 一次生成请求，提供方参数透传
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// Adapter 每个提供方一个实现；调用方只依赖归一后的分片流
type Adapter interface {
	Name() string
	Stream(ctx context.Context, req *Request) (*schema.StreamReader[*schema.Message], error)
	Generate(ctx context.Context, req *Request) (string, error)
}

func New(cfg *config.Config) (Adapter, error) {
	switch cfg.Model.Provider {
	case "openai":
		return newOpenAIAdapter(cfg.OpenAI), nil
	case "doubao":
		return newArkAdapter(cfg.Doubao)
	case "qwen":
		return newQwenAdapter(cfg.Qwen)
	case "local":
		return newLocalAdapter(cfg.Local), nil
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Model.Provider)
	}
}

// timeoutContext 请求级超时；未设置时沿用调用方 ctx 与提供方配置的
// HTTP 超时。只约束同步生成，流式生成由会话空闲超时兜底。
func (r *Request) timeoutContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout > 0 {
		return context.WithTimeout(ctx, r.Timeout)
	}
	return context.WithCancel(ctx)
}

func (r *Request) messages() []*schema.Message {
	var msgs []*schema.Message
	if r.System != "" {
		msgs = append(msgs, &schema.Message{Role: schema.System, Content: r.System})
	}
	msgs = append(msgs, &schema.Message{Role: schema.User, Content: r.Prompt})
	return msgs
}
