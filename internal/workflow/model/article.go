package model

import (
	"strings"

	"article-forge-api/internal/domain/entity"
)

// GenerationRequest 文章生成请求
type GenerationRequest struct {
	Topic           string  `json:"topic"`
	FocusKeyword    string  `json:"focus_keyword"`
	Persona         string  `json:"persona,omitempty"`
	OutlineModelID  string  `json:"outline_model_id"`
	ContentModelID  string  `json:"content_model_id"`
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"max_output_tokens"`

	// 可选：大纲阶段独立参数，未设置时沿用 Temperature 与大纲默认上限
	OutlineTemperature *float64 `json:"outline_temperature,omitempty"`
	OutlineMaxTokens   *int     `json:"outline_max_tokens,omitempty"`

	// SkipResearch 为 true 时不进行关键词研究
	SkipResearch bool `json:"skip_research,omitempty"`
}

// Normalize 去除首尾空白
func (r *GenerationRequest) Normalize() {
	r.Topic = strings.TrimSpace(r.Topic)
	r.FocusKeyword = strings.TrimSpace(r.FocusKeyword)
	r.Persona = strings.TrimSpace(r.Persona)
	r.OutlineModelID = strings.TrimSpace(r.OutlineModelID)
	r.ContentModelID = strings.TrimSpace(r.ContentModelID)
}

// OutlineSection 大纲中的一节
type OutlineSection struct {
	Heading string   `json:"heading"`
	Summary string   `json:"summary,omitempty"`
	Points  []string `json:"points,omitempty"`
}

// Outline 文章大纲，仅在单次生成过程中存在
type Outline struct {
	Title    string           `json:"title"`
	Sections []OutlineSection `json:"sections"`
}

// Markdown 以 Markdown 形式输出大纲，作为正文提示词的输入
func (o *Outline) Markdown() string {
	if o == nil {
		return ""
	}
	var b strings.Builder
	if o.Title != "" {
		b.WriteString("# ")
		b.WriteString(o.Title)
		b.WriteString("\n")
	}
	for _, s := range o.Sections {
		b.WriteString("\n## ")
		b.WriteString(s.Heading)
		b.WriteString("\n")
		if s.Summary != "" {
			b.WriteString(s.Summary)
			b.WriteString("\n")
		}
		for _, p := range s.Points {
			b.WriteString("- ")
			b.WriteString(p)
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String())
}

// OutlineInput 大纲链输入
type OutlineInput struct {
	ModelID      string
	Topic        string
	FocusKeyword string
	Persona      string
	Research     *entity.KeywordData
	Temperature  float64
	MaxTokens    int
}

// ContentInput 正文链输入
type ContentInput struct {
	ModelID      string
	Topic        string
	FocusKeyword string
	Persona      string
	Outline      *Outline
	Research     *entity.KeywordData
	Temperature  float64
	MaxTokens    int
}
