// Package entity 定义领域实体
package entity

import (
	"time"
)

// Article 已完成的文章
// 仅在大纲与正文两个阶段都成功后创建，不存在部分持久化的中间态
type Article struct {
	ID                 string             `json:"id" gorm:"type:uuid;primaryKey"`
	Title              string             `json:"title" gorm:"type:varchar(512);not null"`
	Topic              string             `json:"topic" gorm:"type:text;not null"`
	FocusKeyword       string             `json:"focus_keyword" gorm:"type:varchar(255);index;not null"`
	Persona            string             `json:"persona,omitempty" gorm:"type:text"`
	Content            string             `json:"content" gorm:"type:text;not null"`
	ContentHTML        string             `json:"content_html" gorm:"type:text;not null"`
	WordCount          int                `json:"word_count" gorm:"not null;default:0"`
	ResearchUsed       bool               `json:"research_used" gorm:"not null;default:false"`
	ResearchProvider   string             `json:"research_provider,omitempty" gorm:"type:varchar(32)"`
	ResearchSkipReason string             `json:"research_skip_reason,omitempty" gorm:"type:varchar(255)"`
	Metadata           GenerationMetadata `json:"metadata" gorm:"type:jsonb;serializer:json"`
	CreatedAt          time.Time          `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 表名
func (Article) TableName() string {
	return "articles"
}

// TokenUsage 单次模型调用的 Token 用量
type TokenUsage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
}

// Total 总 Token 数
func (u TokenUsage) Total() int {
	return u.Prompt + u.Completion
}

// GenerationMetadata 生成过程元数据
type GenerationMetadata struct {
	OutlineModelID  string     `json:"outline_model_id"`
	ContentModelID  string     `json:"content_model_id"`
	Temperature     float64    `json:"temperature"`
	MaxOutputTokens int        `json:"max_output_tokens"`
	OutlineUsage    TokenUsage `json:"outline_usage"`
	ContentUsage    TokenUsage `json:"content_usage"`
	OutlineAttempts int        `json:"outline_attempts"`
	ContentAttempts int        `json:"content_attempts"`
	SectionCount    int        `json:"section_count"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     time.Time  `json:"completed_at"`
}

// Duration 生成耗时
func (m GenerationMetadata) Duration() time.Duration {
	if m.CompletedAt.IsZero() {
		return 0
	}
	return m.CompletedAt.Sub(m.StartedAt)
}
