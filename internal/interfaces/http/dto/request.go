// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"github.com/gin-gonic/gin"
)

// BindArticleID 从 URI 绑定文章 ID
func BindArticleID(c *gin.Context) string {
	return c.Param("id")
}

// BindJobID 从 URI 绑定任务 ID
func BindJobID(c *gin.Context) string {
	return c.Param("jid")
}
