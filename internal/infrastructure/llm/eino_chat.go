package llm

import (
	"context"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"article-forge-api/internal/config"
)

// buildEinoChatModel 创建 OpenAI 兼容协议的 Eino ChatModel，适用于 DeepSeek 等兼容服务
func buildEinoChatModel(ctx context.Context, p config.ProviderConfig, defaultModel string) (model.BaseChatModel, error) {
	return einoopenai.NewChatModel(ctx, &einoopenai.ChatModelConfig{
		APIKey:  p.APIKey,
		BaseURL: p.BaseURL,
		Model:   defaultModel,
		Timeout: p.Timeout,
	})
}
