package redis

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"article-forge-api/internal/domain/entity"
	"article-forge-api/internal/domain/repository"
	"article-forge-api/pkg/logger"
)

const (
	articleKeyPrefix  = "article:"
	defaultArticleTTL = 10 * time.Minute
)

// CachedArticleRepository 文章仓储的读穿缓存。
// 文章写入后不再修改，缓存只需写入与过期，Redis 故障时直接回源。
type CachedArticleRepository struct {
	next   repository.ArticleRepository
	client *Client
	ttl    time.Duration
	group  singleflight.Group
}

var _ repository.ArticleRepository = (*CachedArticleRepository)(nil)

// NewCachedArticleRepository 创建带缓存的文章仓储
func NewCachedArticleRepository(next repository.ArticleRepository, client *Client, ttl time.Duration) *CachedArticleRepository {
	if ttl <= 0 {
		ttl = defaultArticleTTL
	}
	return &CachedArticleRepository{next: next, client: client, ttl: ttl}
}

func articleKey(id string) string {
	return articleKeyPrefix + id
}

// Create 先写数据库，再写缓存
func (r *CachedArticleRepository) Create(ctx context.Context, article *entity.Article) error {
	if err := r.next.Create(ctx, article); err != nil {
		return err
	}
	r.store(ctx, article)
	return nil
}

// GetByID 命中缓存直接返回，未命中时合并并发回源请求
func (r *CachedArticleRepository) GetByID(ctx context.Context, id string) (*entity.Article, error) {
	ctx, span := tracer.Start(ctx, "cache.Article.GetByID",
		trace.WithAttributes(attribute.String("cache.key", articleKey(id))))
	defer span.End()

	if a, ok := r.load(ctx, id); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return a, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	// 回源结果由所有等待者共享，不受发起者取消的影响
	loadCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(id, func() (any, error) {
		a, err := r.next.GetByID(loadCtx, id)
		if err != nil || a == nil {
			return a, err
		}
		r.store(loadCtx, a)
		return a, nil
	})

	select {
	case <-ctx.Done():
		span.RecordError(ctx.Err())
		return nil, ctx.Err()
	case res := <-ch:
		span.SetAttributes(attribute.Bool("cache.shared", res.Shared))
		if res.Err != nil {
			span.RecordError(res.Err)
			return nil, res.Err
		}
		a, _ := res.Val.(*entity.Article)
		return a, nil
	}
}

func (r *CachedArticleRepository) load(ctx context.Context, id string) (*entity.Article, bool) {
	raw, err := r.client.rdb.Get(ctx, articleKey(id)).Bytes()
	if err != nil {
		if !IsNil(err) {
			logger.Warn(ctx, "article cache read failed", "article_id", id, "error", err.Error())
		}
		return nil, false
	}
	var a entity.Article
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, false
	}
	return &a, true
}

func (r *CachedArticleRepository) store(ctx context.Context, a *entity.Article) {
	raw, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := r.client.rdb.Set(ctx, articleKey(a.ID), raw, r.ttl).Err(); err != nil {
		logger.Warn(ctx, "article cache write failed", "article_id", a.ID, "error", err.Error())
	}
}
