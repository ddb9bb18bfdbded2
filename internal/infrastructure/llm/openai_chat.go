package llm

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"article-forge-api/internal/config"
)

const openAIChatType = "OpenAISDK"

var errNoChoices = errors.New("openai: response contained no choices")

// OpenAIChatModel 基于官方 openai-go SDK 的 ChatModel
type OpenAIChatModel struct {
	client openaisdk.Client
	model  string
}

var _ model.BaseChatModel = (*OpenAIChatModel)(nil)

// NewOpenAIChatModel 创建 OpenAI ChatModel，重试交由编排层控制
func NewOpenAIChatModel(p config.ProviderConfig, defaultModel string) *OpenAIChatModel {
	opts := []option.RequestOption{
		option.WithAPIKey(p.APIKey),
		option.WithMaxRetries(0),
	}
	if p.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(p.BaseURL))
	}
	return &OpenAIChatModel{client: openaisdk.NewClient(opts...), model: defaultModel}
}

func buildOpenAIChatModel(_ context.Context, p config.ProviderConfig, defaultModel string) (model.BaseChatModel, error) {
	return NewOpenAIChatModel(p, defaultModel), nil
}

func (m *OpenAIChatModel) GetType() string { return openAIChatType }

func (m *OpenAIChatModel) IsCallbacksEnabled() bool { return true }

// Generate 发起一次 Chat Completions 调用
func (m *OpenAIChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (out *schema.Message, err error) {
	o, cfg := resolveOptions(m.model, opts)
	ctx = startCallback(ctx, m.GetType(), in, cfg)
	defer func() {
		if err != nil {
			errorCallback(ctx, err)
		}
	}()

	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(cfg.Model),
		Messages: toOpenAIMessages(in),
	}
	if o.Temperature != nil {
		params.Temperature = openaisdk.Float(float64(*o.Temperature))
	}
	if o.MaxTokens != nil {
		params.MaxCompletionTokens = openaisdk.Int(int64(*o.MaxTokens))
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errNoChoices
	}

	choice := resp.Choices[0]
	out = &schema.Message{
		Role:    schema.Assistant,
		Content: choice.Message.Content,
		ResponseMeta: &schema.ResponseMeta{
			FinishReason: string(choice.FinishReason),
			Usage: &schema.TokenUsage{
				PromptTokens:     int(resp.Usage.PromptTokens),
				CompletionTokens: int(resp.Usage.CompletionTokens),
				TotalTokens:      int(resp.Usage.TotalTokens),
			},
		},
	}
	endCallback(ctx, out, cfg)
	return out, nil
}

// Stream 以单块流返回完整结果
func (m *OpenAIChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	out, err := m.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return singleChunkStream(out), nil
}

func toOpenAIMessages(in []*schema.Message) []openaisdk.ChatCompletionMessageParamUnion {
	msgs := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(in))
	for _, m := range in {
		if m == nil {
			continue
		}
		switch m.Role {
		case schema.System:
			msgs = append(msgs, openaisdk.SystemMessage(m.Content))
		case schema.Assistant:
			msgs = append(msgs, openaisdk.ChatCompletionMessageParamOfAssistant(m.Content))
		default:
			msgs = append(msgs, openaisdk.UserMessage(m.Content))
		}
	}
	return msgs
}
