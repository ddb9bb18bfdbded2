// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"article-forge-api/internal/domain/entity"
)

// JobResponse 任务响应
type JobResponse struct {
	ID          string     `json:"id"`
	JobType     string     `json:"job_type"`
	Status      string     `json:"status"`
	Stage       string     `json:"stage,omitempty"`
	Progress    int        `json:"progress"`
	ArticleID   string     `json:"article_id,omitempty"`
	ErrorCode   string     `json:"error_code,omitempty"`
	ErrorMsg    string     `json:"error_msg,omitempty"`
	RetryCount  int        `json:"retry_count"`
	DurationMs  int        `json:"duration_ms,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ToJobResponse 将领域实体转换为响应 DTO
func ToJobResponse(j *entity.GenerationJob) *JobResponse {
	if j == nil {
		return nil
	}
	return &JobResponse{
		ID:          j.ID,
		JobType:     string(j.JobType),
		Status:      string(j.Status),
		Stage:       j.Stage,
		Progress:    j.Progress,
		ArticleID:   j.ArticleID,
		ErrorCode:   j.ErrorCode,
		ErrorMsg:    j.ErrorMessage,
		RetryCount:  j.RetryCount,
		DurationMs:  j.DurationMs,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}
