// Package handler 提供 HTTP 请求处理器
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"article-forge-api/internal/application/article"
	"article-forge-api/internal/interfaces/http/dto"
	apperrors "article-forge-api/pkg/errors"
	"article-forge-api/pkg/logger"
)

// writeError 将错误映射为统一错误响应，生成失败时附带失败阶段
func writeError(c *gin.Context, err error) {
	ae := apperrors.AsAppError(err)
	status := ae.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	detail := &dto.ErrorDetail{
		ErrorCode: string(ae.Code),
		Details:   ae.Detail,
	}
	if stage, ok := article.StageOf(err); ok {
		detail.Stage = string(stage)
	}

	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request failed", err,
			"path", c.FullPath(),
			"stage", detail.Stage,
		)
	}
	dto.ErrorWithDetail(c, status, ae.Message, detail)
}
