package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"article-forge-api/internal/interfaces/http/dto"
	apperrors "article-forge-api/pkg/errors"
	"article-forge-api/pkg/logger"
	"article-forge-api/pkg/tracer"
)

// Recovery Panic 恢复中间件
// http.ErrAbortHandler 原样抛出交给 net/http 断开连接；响应已开始写出时只中止
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			ctx := c.Request.Context()
			logger.Error(ctx, "panic recovered",
				fmt.Errorf("%v", rec),
				"stack", string(debug.Stack()),
				"method", c.Request.Method,
				"route", c.FullPath(),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
				Code:    http.StatusInternalServerError,
				Message: "internal server error",
				Error:   &dto.ErrorDetail{ErrorCode: string(apperrors.CodeInternalError)},
				TraceID: tracer.TraceID(ctx),
			})
		}()

		c.Next()
	}
}
