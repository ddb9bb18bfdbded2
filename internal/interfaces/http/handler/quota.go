package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"article-forge-api/internal/application/quota"
	"article-forge-api/internal/domain/entity"
	"article-forge-api/internal/interfaces/http/dto"
)

// QuotaReader 额度快照查询
type QuotaReader interface {
	Snapshot(ctx context.Context) (map[entity.KeywordProvider]quota.Snapshot, error)
}

// QuotaHandler 额度处理器
type QuotaHandler struct {
	quota QuotaReader
}

// NewQuotaHandler 创建额度处理器
func NewQuotaHandler(q QuotaReader) *QuotaHandler {
	return &QuotaHandler{quota: q}
}

// GetQuota 查询关键词数据源额度，只读
// @Summary 查询额度
// @Tags Quota
// @Produce json
// @Success 200 {object} dto.Response[dto.QuotaResponse]
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/quota [get]
func (h *QuotaHandler) GetQuota(c *gin.Context) {
	snap, err := h.quota.Snapshot(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Success(c, dto.ToQuotaResponse(snap))
}
