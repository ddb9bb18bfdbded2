package repository

import (
	"context"

	"article-forge-api/internal/domain/entity"
)

// ArticleRepository 文章仓储接口
type ArticleRepository interface {
	// Create 单次写入完整文章
	Create(ctx context.Context, article *entity.Article) error

	// GetByID 根据 ID 获取文章，不存在时返回 nil, nil
	GetByID(ctx context.Context, id string) (*entity.Article, error)
}
