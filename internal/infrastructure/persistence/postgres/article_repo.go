package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"article-forge-api/internal/domain/entity"
	"article-forge-api/internal/domain/repository"
)

// ArticleRepository 文章仓储实现
type ArticleRepository struct {
	client *Client
}

var _ repository.ArticleRepository = (*ArticleRepository)(nil)

// NewArticleRepository 创建文章仓储
func NewArticleRepository(client *Client) *ArticleRepository {
	return &ArticleRepository{client: client}
}

// Create 写入完整文章
func (r *ArticleRepository) Create(ctx context.Context, article *entity.Article) error {
	ctx, span := tracer.Start(ctx, "postgres.ArticleRepository.Create")
	defer span.End()

	if err := getDB(ctx, r.client.db).Create(article).Error; err != nil {
		span.RecordError(err)
		return storageError(err, "failed to create article")
	}
	return nil
}

// GetByID 根据 ID 获取文章
func (r *ArticleRepository) GetByID(ctx context.Context, id string) (*entity.Article, error) {
	ctx, span := tracer.Start(ctx, "postgres.ArticleRepository.GetByID")
	defer span.End()

	var article entity.Article
	if err := getDB(ctx, r.client.db).First(&article, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, storageError(err, "failed to get article")
	}
	return &article, nil
}
