package postgres

import (
	"context"

	"article-forge-api/internal/domain/entity"
	"article-forge-api/internal/domain/repository"
)

// 单条语句完成建行、跨周期重置与自增，行锁保证同一数据源的并发自增串行化
const incrementUsageSQL = `INSERT INTO keyword_usage_counters (provider, period_key, call_count, updated_at)
VALUES (?, ?, 1, NOW())
ON CONFLICT (provider) DO UPDATE SET
	call_count = CASE
		WHEN keyword_usage_counters.period_key = EXCLUDED.period_key THEN keyword_usage_counters.call_count + 1
		ELSE 1
	END,
	period_key = EXCLUDED.period_key,
	updated_at = NOW()
RETURNING provider, period_key, call_count, updated_at`

// UsageCounterRepository 关键词调用计数仓储实现
type UsageCounterRepository struct {
	client *Client
}

var _ repository.UsageCounterRepository = (*UsageCounterRepository)(nil)

// NewUsageCounterRepository 创建计数仓储
func NewUsageCounterRepository(client *Client) *UsageCounterRepository {
	return &UsageCounterRepository{client: client}
}

// Increment 原子自增
func (r *UsageCounterRepository) Increment(ctx context.Context, provider entity.KeywordProvider, periodKey string) (*entity.UsageCounter, error) {
	ctx, span := tracer.Start(ctx, "postgres.UsageCounterRepository.Increment")
	defer span.End()

	var counter entity.UsageCounter
	if err := getDB(ctx, r.client.db).Raw(incrementUsageSQL, string(provider), periodKey).Scan(&counter).Error; err != nil {
		span.RecordError(err)
		return nil, storageError(err, "failed to increment usage counter")
	}
	return &counter, nil
}

// List 返回全部计数行
func (r *UsageCounterRepository) List(ctx context.Context) ([]*entity.UsageCounter, error) {
	ctx, span := tracer.Start(ctx, "postgres.UsageCounterRepository.List")
	defer span.End()

	var counters []*entity.UsageCounter
	if err := getDB(ctx, r.client.db).Order("provider").Find(&counters).Error; err != nil {
		span.RecordError(err)
		return nil, storageError(err, "failed to list usage counters")
	}
	return counters, nil
}
