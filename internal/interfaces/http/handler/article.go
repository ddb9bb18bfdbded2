package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"article-forge-api/internal/application/article"
	"article-forge-api/internal/config"
	"article-forge-api/internal/domain/entity"
	"article-forge-api/internal/domain/repository"
	"article-forge-api/internal/interfaces/http/dto"
	wfmodel "article-forge-api/internal/workflow/model"
	apperrors "article-forge-api/pkg/errors"
)

// ArticleGenerator 同步文章生成
type ArticleGenerator interface {
	Generate(ctx context.Context, req *wfmodel.GenerationRequest, opts ...article.Option) (*entity.Article, error)
}

// ArticleHandler 文章处理器
type ArticleHandler struct {
	generator ArticleGenerator
	articles  repository.ArticleRepository
	defaults  config.GenerationConfig
}

// NewArticleHandler 创建文章处理器
func NewArticleHandler(generator ArticleGenerator, articles repository.ArticleRepository, cfg *config.Config) *ArticleHandler {
	return &ArticleHandler{
		generator: generator,
		articles:  articles,
		defaults:  cfg.Generation,
	}
}

// GenerateArticle 同步生成文章
// @Summary 生成文章
// @Description 依次执行可选关键词研究、大纲与正文两次模型调用，返回组装后的文章
// @Tags Articles
// @Accept json
// @Produce json
// @Param body body dto.GenerateArticleRequest true "生成参数"
// @Success 200 {object} dto.Response[dto.ArticleResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/articles/generate [post]
func (h *ArticleHandler) GenerateArticle(c *gin.Context) {
	var req dto.GenerateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.ErrInvalidParam.WithDetail(err.Error()))
		return
	}

	result, err := h.generator.Generate(c.Request.Context(), req.ToGenerationRequest(h.defaults))
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Success(c, dto.ToArticleResponse(result))
}

// GetArticle 获取已生成的文章
// @Summary 获取文章
// @Tags Articles
// @Produce json
// @Param id path string true "文章 ID"
// @Success 200 {object} dto.Response[dto.ArticleResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/articles/{id} [get]
func (h *ArticleHandler) GetArticle(c *gin.Context) {
	result, err := h.articles.GetByID(c.Request.Context(), dto.BindArticleID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if result == nil {
		writeError(c, apperrors.ErrArticleNotFound)
		return
	}
	dto.Success(c, dto.ToArticleResponse(result))
}
