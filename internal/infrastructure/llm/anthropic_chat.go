package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"article-forge-api/internal/config"
)

const (
	anthropicChatType         = "AnthropicSDK"
	anthropicDefaultMaxTokens = 4096
)

// AnthropicChatModel 基于官方 anthropic-sdk-go 的 ChatModel
type AnthropicChatModel struct {
	client anthropic.Client
	model  string
}

var _ model.BaseChatModel = (*AnthropicChatModel)(nil)

// NewAnthropicChatModel 创建 Anthropic ChatModel
func NewAnthropicChatModel(p config.ProviderConfig, defaultModel string) *AnthropicChatModel {
	opts := []anthropicopt.RequestOption{
		anthropicopt.WithAPIKey(p.APIKey),
		anthropicopt.WithMaxRetries(0),
	}
	if p.BaseURL != "" {
		opts = append(opts, anthropicopt.WithBaseURL(p.BaseURL))
	}
	return &AnthropicChatModel{client: anthropic.NewClient(opts...), model: defaultModel}
}

func buildAnthropicChatModel(_ context.Context, p config.ProviderConfig, defaultModel string) (model.BaseChatModel, error) {
	return NewAnthropicChatModel(p, defaultModel), nil
}

func (m *AnthropicChatModel) GetType() string { return anthropicChatType }

func (m *AnthropicChatModel) IsCallbacksEnabled() bool { return true }

// Generate 发起一次 Messages 调用，系统提示词单独传递
func (m *AnthropicChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (out *schema.Message, err error) {
	o, cfg := resolveOptions(m.model, opts)
	ctx = startCallback(ctx, m.GetType(), in, cfg)
	defer func() {
		if err != nil {
			errorCallback(ctx, err)
		}
	}()

	maxTokens := anthropicDefaultMaxTokens
	if o.MaxTokens != nil && *o.MaxTokens > 0 {
		maxTokens = *o.MaxTokens
	}

	system, turns := splitSystem(in)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(cfg.Model),
		MaxTokens: int64(maxTokens),
		Messages:  toAnthropicMessages(turns),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if o.Temperature != nil {
		params.Temperature = anthropic.Float(float64(*o.Temperature))
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	in64, out64 := resp.Usage.InputTokens, resp.Usage.OutputTokens
	out = &schema.Message{
		Role:    schema.Assistant,
		Content: text.String(),
		ResponseMeta: &schema.ResponseMeta{
			FinishReason: string(resp.StopReason),
			Usage: &schema.TokenUsage{
				PromptTokens:     int(in64),
				CompletionTokens: int(out64),
				TotalTokens:      int(in64 + out64),
			},
		},
	}
	endCallback(ctx, out, cfg)
	return out, nil
}

// Stream 以单块流返回完整结果
func (m *AnthropicChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	out, err := m.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return singleChunkStream(out), nil
}

func toAnthropicMessages(in []*schema.Message) []anthropic.MessageParam {
	msgs := make([]anthropic.MessageParam, 0, len(in))
	for _, m := range in {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == schema.Assistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(block))
			continue
		}
		msgs = append(msgs, anthropic.NewUserMessage(block))
	}
	return msgs
}
