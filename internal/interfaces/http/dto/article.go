// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"article-forge-api/internal/config"
	"article-forge-api/internal/domain/entity"
	wfmodel "article-forge-api/internal/workflow/model"
)

// GenerateArticleRequest 文章生成请求
// 字段校验统一由生成编排器完成，这里只负责解码
type GenerateArticleRequest struct {
	Topic           string   `json:"topic"`
	FocusKeyword    string   `json:"focus_keyword"`
	Persona         string   `json:"persona,omitempty"`
	OutlineModelID  string   `json:"outline_model_id"`
	ContentModelID  string   `json:"content_model_id"`
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens *int     `json:"max_output_tokens,omitempty"`

	OutlineTemperature *float64 `json:"outline_temperature,omitempty"`
	OutlineMaxTokens   *int     `json:"outline_max_tokens,omitempty"`
	SkipResearch       bool     `json:"skip_research,omitempty"`
}

// ToGenerationRequest 转换为生成请求，未提供的可选参数取配置默认值
func (r *GenerateArticleRequest) ToGenerationRequest(defaults config.GenerationConfig) *wfmodel.GenerationRequest {
	req := &wfmodel.GenerationRequest{
		Topic:              r.Topic,
		FocusKeyword:       r.FocusKeyword,
		Persona:            r.Persona,
		OutlineModelID:     r.OutlineModelID,
		ContentModelID:     r.ContentModelID,
		Temperature:        defaults.DefaultTemperature,
		MaxOutputTokens:    defaults.DefaultMaxTokens,
		OutlineTemperature: r.OutlineTemperature,
		OutlineMaxTokens:   r.OutlineMaxTokens,
		SkipResearch:       r.SkipResearch,
	}
	if r.Temperature != nil {
		req.Temperature = *r.Temperature
	}
	if r.MaxOutputTokens != nil {
		req.MaxOutputTokens = *r.MaxOutputTokens
	}
	return req
}

// ResearchSummary 关键词研究结果摘要
type ResearchSummary struct {
	Used       bool   `json:"used"`
	Provider   string `json:"provider,omitempty"`
	SkipReason string `json:"skip_reason,omitempty"`
}

// ArticleResponse 文章响应
type ArticleResponse struct {
	ID           string                    `json:"id"`
	Title        string                    `json:"title"`
	Topic        string                    `json:"topic"`
	FocusKeyword string                    `json:"focus_keyword"`
	Persona      string                    `json:"persona,omitempty"`
	Content      string                    `json:"content"`
	ContentHTML  string                    `json:"content_html"`
	WordCount    int                       `json:"word_count"`
	Research     ResearchSummary           `json:"research"`
	Metadata     entity.GenerationMetadata `json:"metadata"`
	CreatedAt    time.Time                 `json:"created_at"`
}

// ToArticleResponse 将领域实体转换为响应 DTO
func ToArticleResponse(a *entity.Article) *ArticleResponse {
	if a == nil {
		return nil
	}
	return &ArticleResponse{
		ID:           a.ID,
		Title:        a.Title,
		Topic:        a.Topic,
		FocusKeyword: a.FocusKeyword,
		Persona:      a.Persona,
		Content:      a.Content,
		ContentHTML:  a.ContentHTML,
		WordCount:    a.WordCount,
		Research: ResearchSummary{
			Used:       a.ResearchUsed,
			Provider:   a.ResearchProvider,
			SkipReason: a.ResearchSkipReason,
		},
		Metadata:  a.Metadata,
		CreatedAt: a.CreatedAt,
	}
}
