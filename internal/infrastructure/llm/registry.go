// Package llm 提供按模型标识路由的多提供商模型调用
package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"article-forge-api/internal/config"
	"article-forge-api/internal/domain/entity"
	llmctx "article-forge-api/internal/domain/service"
	workflowport "article-forge-api/internal/workflow/port"
	apperrors "article-forge-api/pkg/errors"
)

const defaultCallTimeout = 60 * time.Second

// 提供商客户端实现
const (
	KindEino      = "eino"
	KindOpenAI    = "openai"
	KindAnthropic = "anthropic"
)

// ChatModelBuilder 根据提供商配置构造 Eino ChatModel
type ChatModelBuilder func(ctx context.Context, p config.ProviderConfig, defaultModel string) (model.BaseChatModel, error)

// ModelSpec 对外暴露的模型标识及其参数边界
type ModelSpec struct {
	ID              string
	Provider        string
	Model           string
	MaxOutputTokens int
	MinTemperature  float64
	MaxTemperature  float64
}

// Registry 模型注册表：模型标识 -> 提供商 -> 惰性创建的 ChatModel 客户端
type Registry struct {
	models    map[string]ModelSpec
	providers map[string]config.ProviderConfig
	builders  map[string]ChatModelBuilder

	clients map[string]model.BaseChatModel
	mu      sync.RWMutex
}

var _ workflowport.TextGenerator = (*Registry)(nil)

// NewRegistry 创建模型注册表，并注册内置的三种客户端实现
func NewRegistry(cfg *config.Config) *Registry {
	r := &Registry{
		models:    make(map[string]ModelSpec, len(cfg.LLM.Models)),
		providers: make(map[string]config.ProviderConfig, len(cfg.LLM.Providers)),
		builders:  make(map[string]ChatModelBuilder),
		clients:   make(map[string]model.BaseChatModel),
	}
	for name, p := range cfg.LLM.Providers {
		r.providers[name] = p
	}
	for id, m := range cfg.LLM.Models {
		r.models[id] = ModelSpec{
			ID:              id,
			Provider:        m.Provider,
			Model:           m.Model,
			MaxOutputTokens: m.MaxOutputTokens,
			MinTemperature:  m.MinTemperature,
			MaxTemperature:  m.MaxTemperature,
		}
	}
	r.RegisterBuilder(KindEino, buildEinoChatModel)
	r.RegisterBuilder(KindOpenAI, buildOpenAIChatModel)
	r.RegisterBuilder(KindAnthropic, buildAnthropicChatModel)
	return r
}

// RegisterBuilder 注册新的客户端实现，无需改动编排层
func (r *Registry) RegisterBuilder(kind string, b ChatModelBuilder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[kind] = b
}

// RegisterClient 直接为提供商注入已构造的客户端
func (r *Registry) RegisterClient(provider string, m model.BaseChatModel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[provider] = m
}

// Resolve 查找模型标识
func (r *Registry) Resolve(modelID string) (ModelSpec, bool) {
	spec, ok := r.models[strings.TrimSpace(modelID)]
	return spec, ok
}

// Models 返回全部已配置的模型
func (r *Registry) Models() []ModelSpec {
	out := make([]ModelSpec, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	return out
}

// ValidateParams 校验模型标识与采样参数是否在模型边界内
func (r *Registry) ValidateParams(modelID string, params workflowport.GenerateParams) error {
	spec, ok := r.Resolve(modelID)
	if !ok {
		return apperrors.Newf(apperrors.CodeProviderPermanent, "unknown model %q", modelID)
	}
	if params.MaxOutputTokens <= 0 {
		return apperrors.ErrInvalidParam.WithDetail("max_output_tokens must be positive")
	}
	if params.MaxOutputTokens > spec.MaxOutputTokens {
		return apperrors.ErrInvalidParam.WithDetail(fmt.Sprintf(
			"max_output_tokens %d exceeds model %s limit %d", params.MaxOutputTokens, spec.ID, spec.MaxOutputTokens))
	}
	if params.Temperature < spec.MinTemperature || params.Temperature > spec.MaxTemperature {
		return apperrors.ErrInvalidParam.WithDetail(fmt.Sprintf(
			"temperature %.2f outside model %s range [%.2f, %.2f]", params.Temperature, spec.ID, spec.MinTemperature, spec.MaxTemperature))
	}
	return nil
}

// Invoke 调用模型并对失败分类。
// 调用在脱离调用方取消的上下文中执行，只受提供商超时约束。
func (r *Registry) Invoke(ctx context.Context, modelID string, messages []*schema.Message, params workflowport.GenerateParams) (*workflowport.GeneratedText, error) {
	if err := r.ValidateParams(modelID, params); err != nil {
		return nil, err
	}
	spec, _ := r.Resolve(modelID)

	chatModel, err := r.client(ctx, spec)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeProviderPermanent, "model provider unavailable")
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeoutFor(spec.Provider))
	defer cancel()
	callCtx = llmctx.WithModelID(llmctx.WithProvider(callCtx, spec.Provider), spec.ID)

	msg, err := chatModel.Generate(callCtx, messages,
		model.WithModel(spec.Model),
		model.WithTemperature(float32(params.Temperature)),
		model.WithMaxTokens(params.MaxOutputTokens),
	)
	if err != nil {
		return nil, classify(spec, err)
	}
	return toGeneratedText(spec, msg)
}

func toGeneratedText(spec ModelSpec, msg *schema.Message) (*workflowport.GeneratedText, error) {
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return nil, apperrors.Newf(apperrors.CodeProviderTransient, "model %s returned empty output", spec.ID)
	}
	out := &workflowport.GeneratedText{
		Text:     strings.TrimSpace(msg.Content),
		ModelID:  spec.ID,
		Provider: spec.Provider,
	}
	if meta := msg.ResponseMeta; meta != nil {
		out.FinishReason = meta.FinishReason
		if meta.Usage != nil {
			out.Usage = entity.TokenUsage{Prompt: meta.Usage.PromptTokens, Completion: meta.Usage.CompletionTokens}
		}
	}
	if isPolicyStop(out.FinishReason) {
		return nil, apperrors.Newf(apperrors.CodeProviderPermanent, "model %s stopped for content policy (%s)", spec.ID, out.FinishReason)
	}
	return out, nil
}

func (r *Registry) timeoutFor(provider string) time.Duration {
	if p, ok := r.providers[provider]; ok && p.Timeout > 0 {
		return p.Timeout
	}
	return defaultCallTimeout
}

// client 获取提供商客户端，首次使用时创建
func (r *Registry) client(ctx context.Context, spec ModelSpec) (model.BaseChatModel, error) {
	r.mu.RLock()
	m, ok := r.clients[spec.Provider]
	r.mu.RUnlock()
	if ok {
		return m, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok = r.clients[spec.Provider]; ok {
		return m, nil
	}

	p, ok := r.providers[spec.Provider]
	if !ok {
		return nil, fmt.Errorf("provider %s not found in LLM config", spec.Provider)
	}
	build, ok := r.builders[p.Kind]
	if !ok {
		return nil, fmt.Errorf("provider %s has unsupported kind %q", spec.Provider, p.Kind)
	}
	m, err := build(ctx, p, spec.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model for %s: %w", spec.Provider, err)
	}
	r.clients[spec.Provider] = m
	return m, nil
}
