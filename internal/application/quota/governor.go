package quota

import (
	"context"

	"article-forge-api/internal/domain/entity"
	apperrors "article-forge-api/pkg/errors"
)

// UsageReader 当前周期用量的只读视图
type UsageReader interface {
	CurrentUsage(ctx context.Context) (map[entity.KeywordProvider]*entity.UsageCounter, error)
}

// Snapshot 单个数据源的额度快照，只用于查询，不持久化
type Snapshot struct {
	Provider  entity.KeywordProvider `json:"provider"`
	Period    string                 `json:"period"`
	Used      int64                  `json:"used"`
	Limit     int64                  `json:"limit"`
	Remaining int64                  `json:"remaining"`
}

// Governor 根据账本判断数据源是否还有额度
type Governor struct {
	usage UsageReader
}

// NewGovernor 创建额度判定器
func NewGovernor(usage UsageReader) *Governor {
	return &Governor{usage: usage}
}

// Snapshot 返回所有数据源的额度快照，只读
func (g *Governor) Snapshot(ctx context.Context) (map[entity.KeywordProvider]Snapshot, error) {
	usage, err := g.usage.CurrentUsage(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[entity.KeywordProvider]Snapshot, len(usage))
	for _, p := range entity.KeywordProviders() {
		out[p] = snapshotOf(p, usage[p])
	}
	return out, nil
}

// Remaining 当前周期剩余调用次数，最小为 0
func (g *Governor) Remaining(ctx context.Context, provider entity.KeywordProvider) (int64, error) {
	snap, err := g.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	s, ok := snap[provider]
	if !ok {
		return 0, apperrors.ErrInvalidParam.WithDetail("unknown keyword provider " + string(provider))
	}
	return s.Remaining, nil
}

// CanProceed 数据源是否还能再调用一次
func (g *Governor) CanProceed(ctx context.Context, provider entity.KeywordProvider) (bool, error) {
	remaining, err := g.Remaining(ctx, provider)
	if err != nil {
		return false, err
	}
	return remaining > 0, nil
}

// ChooseProvider 优先选择计量数据源，其额度用尽时退到免费数据源。
// 两者都用尽时返回 ErrQuotaExhausted。
func (g *Governor) ChooseProvider(ctx context.Context) (entity.KeywordProvider, error) {
	snap, err := g.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	for _, p := range entity.KeywordProviders() {
		if snap[p].Remaining > 0 {
			return p, nil
		}
	}
	return "", apperrors.ErrQuotaExhausted
}

func snapshotOf(p entity.KeywordProvider, c *entity.UsageCounter) Snapshot {
	s := Snapshot{Provider: p, Limit: p.Limit()}
	if c != nil {
		s.Period = c.PeriodKey
		s.Used = c.CallCount
	}
	s.Remaining = s.Limit - s.Used
	if s.Remaining < 0 {
		s.Remaining = 0
	}
	return s
}
