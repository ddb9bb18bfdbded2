package dto

import (
	"article-forge-api/internal/application/quota"
	"article-forge-api/internal/domain/entity"
)

// QuotaEntry 单个数据源的额度
type QuotaEntry struct {
	Used      int64  `json:"used"`
	Limit     int64  `json:"limit"`
	Remaining int64  `json:"remaining"`
	Period    string `json:"period"`
}

// QuotaResponse 以数据源名称为键的额度视图
type QuotaResponse map[string]QuotaEntry

// ToQuotaResponse 将额度快照转换为响应 DTO
func ToQuotaResponse(snap map[entity.KeywordProvider]quota.Snapshot) QuotaResponse {
	resp := make(QuotaResponse, len(snap))
	for p, s := range snap {
		resp[string(p)] = QuotaEntry{
			Used:      s.Used,
			Limit:     s.Limit,
			Remaining: s.Remaining,
			Period:    s.Period,
		}
	}
	return resp
}
