// Package quota 提供关键词数据源的用量账本与额度判定
package quota

import (
	"context"
	"fmt"
	"time"

	"article-forge-api/internal/domain/entity"
	"article-forge-api/internal/domain/repository"
	apperrors "article-forge-api/pkg/errors"
	"article-forge-api/pkg/metrics"
)

// Ledger 关键词数据源用量账本
// 计数的原子性由底层仓储保证，账本本身不持有状态
type Ledger struct {
	repo repository.UsageCounterRepository
	now  func() time.Time
}

// NewLedger 创建用量账本
func NewLedger(repo repository.UsageCounterRepository) *Ledger {
	return &Ledger{
		repo: repo,
		now:  time.Now,
	}
}

// RecordCall 记录一次已发出的数据源调用，并刷新剩余额度指标
func (l *Ledger) RecordCall(ctx context.Context, provider entity.KeywordProvider) (*entity.UsageCounter, error) {
	if !provider.Valid() {
		return nil, apperrors.ErrInvalidParam.WithDetail(fmt.Sprintf("unknown keyword provider %q", provider))
	}
	counter, err := l.repo.Increment(ctx, provider, provider.PeriodKey(l.now()))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorageUnavailable, "failed to record keyword usage")
	}
	metrics.QuotaRemaining.WithLabelValues(string(provider)).Set(float64(max(provider.Limit()-counter.CallCount, 0)))
	return counter, nil
}

// CurrentUsage 返回每个数据源在当前周期内的用量。
// 存储中属于旧周期的计量计数按 0 报告，但不会被改写。
func (l *Ledger) CurrentUsage(ctx context.Context) (map[entity.KeywordProvider]*entity.UsageCounter, error) {
	rows, err := l.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorageUnavailable, "failed to read keyword usage")
	}

	now := l.now()
	out := make(map[entity.KeywordProvider]*entity.UsageCounter, 2)
	for _, p := range entity.KeywordProviders() {
		out[p] = &entity.UsageCounter{Provider: p, PeriodKey: p.PeriodKey(now)}
	}
	for _, row := range rows {
		cur, ok := out[row.Provider]
		if !ok || row.PeriodKey != cur.PeriodKey {
			continue
		}
		cur.CallCount = row.CallCount
		cur.UpdatedAt = row.UpdatedAt
	}
	return out, nil
}
