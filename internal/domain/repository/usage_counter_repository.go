package repository

import (
	"context"

	"article-forge-api/internal/domain/entity"
)

// UsageCounterRepository 关键词数据源调用计数仓储
// 实现必须保证同一数据源的并发 Increment 不丢失计数
type UsageCounterRepository interface {
	// Increment 原子地将计数加一并返回新值。
	// 存储中的周期与 periodKey 不同时，先将计数重置为 0 再加一。
	Increment(ctx context.Context, provider entity.KeywordProvider, periodKey string) (*entity.UsageCounter, error)

	// List 返回所有已存在的计数行（只读）
	List(ctx context.Context) ([]*entity.UsageCounter, error)
}
