// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"time"
)

// JobType 任务类型
type JobType string

const (
	JobTypeArticleGen JobType = "article_gen"
)

// JobStatus 任务状态
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// GenerationJob 异步文章生成任务
type GenerationJob struct {
	ID           string          `json:"id" gorm:"type:uuid;primaryKey"`
	JobType      JobType         `json:"job_type" gorm:"type:varchar(32);not null"`
	Status       JobStatus       `json:"status" gorm:"type:varchar(16);index;not null"`
	Stage        string          `json:"stage,omitempty" gorm:"type:varchar(32)"`
	Progress     int             `json:"progress" gorm:"not null;default:0"` // 任务进度 (0-100)
	InputParams  json.RawMessage `json:"input_params" gorm:"type:jsonb"`
	ArticleID    string          `json:"article_id,omitempty" gorm:"type:uuid"`
	ErrorCode    string          `json:"error_code,omitempty" gorm:"type:varchar(16)"`
	ErrorMessage string          `json:"error_message,omitempty" gorm:"type:text"`
	RetryCount   int             `json:"retry_count" gorm:"not null;default:0"`
	DurationMs   int             `json:"duration_ms,omitempty"`
	CreatedAt    time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// TableName 表名
func (GenerationJob) TableName() string {
	return "generation_jobs"
}

// NewGenerationJob 创建新任务
func NewGenerationJob(id string, inputParams json.RawMessage) *GenerationJob {
	return &GenerationJob{
		ID:          id,
		JobType:     JobTypeArticleGen,
		Status:      JobStatusPending,
		InputParams: inputParams,
		CreatedAt:   time.Now(),
	}
}

// Start 开始执行任务
func (j *GenerationJob) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.ErrorCode = ""
	j.ErrorMessage = ""
}

// Complete 完成任务
func (j *GenerationJob) Complete(articleID string) {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.ArticleID = articleID
	j.Progress = 100
	j.CompletedAt = &now
	if j.StartedAt != nil {
		j.DurationMs = int(now.Sub(*j.StartedAt).Milliseconds())
	}
}

// Fail 任务失败
func (j *GenerationJob) Fail(code, errMsg string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.ErrorCode = code
	j.ErrorMessage = errMsg
	j.CompletedAt = &now
	if j.StartedAt != nil {
		j.DurationMs = int(now.Sub(*j.StartedAt).Milliseconds())
	}
}

// Finished 是否已到达终态
func (j *GenerationJob) Finished() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// UpdateProgress 更新任务进度
func (j *GenerationJob) UpdateProgress(stage string, progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	j.Stage = stage
	j.Progress = progress
}
