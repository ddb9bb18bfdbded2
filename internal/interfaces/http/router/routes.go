package router

import (
	"github.com/gin-gonic/gin"

	"article-forge-api/internal/interfaces/http/handler"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(
	v1 *gin.RouterGroup,
	articleHandler *handler.ArticleHandler,
	jobHandler *handler.JobHandler,
	quotaHandler *handler.QuotaHandler,
) {
	// 文章生成
	articles := v1.Group("/articles")
	{
		articles.POST("/generate", articleHandler.GenerateArticle)
		articles.POST("/jobs", jobHandler.CreateJob)
		articles.GET("/:id", articleHandler.GetArticle)
	}

	// 任务查询
	jobs := v1.Group("/jobs")
	{
		jobs.GET("/:jid", jobHandler.GetJob)
	}

	// 关键词额度
	v1.GET("/quota", quotaHandler.GetQuota)
}
