package port

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"article-forge-api/internal/domain/entity"
)

// GenerateParams 单次模型调用的采样参数
type GenerateParams struct {
	Temperature     float64
	MaxOutputTokens int
}

// GeneratedText 模型调用结果
type GeneratedText struct {
	Text         string
	ModelID      string
	Provider     string
	FinishReason string
	Usage        entity.TokenUsage
}

// TextGenerator 定义工作流层对模型调用的最小依赖（port）。
// 实现方负责按模型标识路由到具体提供商、校验参数边界并对失败分类。
type TextGenerator interface {
	// ValidateParams 在任何外部调用之前校验模型标识与参数
	ValidateParams(modelID string, params GenerateParams) error

	Invoke(ctx context.Context, modelID string, messages []*schema.Message, params GenerateParams) (*GeneratedText, error)
}
