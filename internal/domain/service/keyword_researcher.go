package service

import (
	"context"
	"errors"

	"article-forge-api/internal/domain/entity"
)

// ErrNotDispatched 请求在发往数据源之前失败，未消耗额度
var ErrNotDispatched = errors.New("keyword request not dispatched")

// KeywordResearcher 关键词数据源能力接口
// 每个实现对应一个数据源，调用一次即消耗该数据源一次额度
// 未发出请求的失败须包装 ErrNotDispatched
type KeywordResearcher interface {
	Provider() entity.KeywordProvider
	Search(ctx context.Context, keyword string) (*entity.KeywordData, error)
}
