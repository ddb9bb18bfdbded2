package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"article-forge-api/internal/domain/entity"
	"article-forge-api/internal/domain/repository"
	apperrors "article-forge-api/pkg/errors"
)

// JobRepository 任务仓储实现
type JobRepository struct {
	client *Client
}

var _ repository.JobRepository = (*JobRepository)(nil)

// NewJobRepository 创建任务仓储
func NewJobRepository(client *Client) *JobRepository {
	return &JobRepository{client: client}
}

// Create 创建任务
func (r *JobRepository) Create(ctx context.Context, job *entity.GenerationJob) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.Create")
	defer span.End()

	if err := getDB(ctx, r.client.db).Create(job).Error; err != nil {
		span.RecordError(err)
		return storageError(err, "failed to create job")
	}
	return nil
}

// GetByID 根据 ID 获取任务
func (r *JobRepository) GetByID(ctx context.Context, id string) (*entity.GenerationJob, error) {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.GetByID")
	defer span.End()

	var job entity.GenerationJob
	if err := getDB(ctx, r.client.db).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, storageError(err, "failed to get job")
	}
	return &job, nil
}

// Update 更新任务
func (r *JobRepository) Update(ctx context.Context, job *entity.GenerationJob) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.Update")
	defer span.End()

	if err := getDB(ctx, r.client.db).Save(job).Error; err != nil {
		span.RecordError(err)
		return storageError(err, "failed to update job")
	}
	return nil
}

// UpdateProgress 更新任务阶段与进度
func (r *JobRepository) UpdateProgress(ctx context.Context, id string, stage string, progress int) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.UpdateProgress")
	defer span.End()

	result := getDB(ctx, r.client.db).
		Model(&entity.GenerationJob{}).
		Where("id = ?", id).
		Updates(map[string]any{"stage": stage, "progress": progress})
	if result.Error != nil {
		span.RecordError(result.Error)
		return storageError(result.Error, "failed to update job progress")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrJobNotFound
	}
	return nil
}
