package llm

import (
	"context"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// SDK 适配器不经过 eino-ext，需要自行触发回调，供可观测性 Handler 统一采集

func startCallback(ctx context.Context, typ string, in []*schema.Message, cfg *model.Config) context.Context {
	ctx = callbacks.EnsureRunInfo(ctx, typ, components.ComponentOfChatModel)
	return callbacks.OnStart(ctx, &model.CallbackInput{Messages: in, Config: cfg})
}

func endCallback(ctx context.Context, out *schema.Message, cfg *model.Config) {
	output := &model.CallbackOutput{Message: out, Config: cfg}
	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		u := out.ResponseMeta.Usage
		output.TokenUsage = &model.TokenUsage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}
	callbacks.OnEnd(ctx, output)
}

func errorCallback(ctx context.Context, err error) {
	callbacks.OnError(ctx, err)
}

// resolveOptions 合并调用选项与默认模型名
func resolveOptions(defaultModel string, opts []model.Option) (*model.Options, *model.Config) {
	o := model.GetCommonOptions(&model.Options{Model: &defaultModel}, opts...)
	cfg := &model.Config{}
	if o.Model != nil {
		cfg.Model = *o.Model
	}
	if o.MaxTokens != nil {
		cfg.MaxTokens = *o.MaxTokens
	}
	if o.Temperature != nil {
		cfg.Temperature = *o.Temperature
	}
	return o, cfg
}

// splitSystem 拆出系统提示词，其余消息按原顺序返回
func splitSystem(in []*schema.Message) (string, []*schema.Message) {
	var system string
	rest := make([]*schema.Message, 0, len(in))
	for _, m := range in {
		if m == nil {
			continue
		}
		if m.Role == schema.System {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}

func singleChunkStream(msg *schema.Message) *schema.StreamReader[*schema.Message] {
	return schema.StreamReaderFromArray([]*schema.Message{msg})
}
