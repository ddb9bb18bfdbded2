package keyword

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"article-forge-api/internal/config"
	"article-forge-api/internal/domain/entity"
	"article-forge-api/internal/domain/service"
	apperrors "article-forge-api/pkg/errors"
)

const serperDefaultBase = "https://google.serper.dev"

// SerperClient 终身免费额度的 Serper 客户端
type SerperClient struct {
	baseClient
}

// NewSerperClient 创建 Serper 客户端
func NewSerperClient(cfg config.KeywordProviderConfig) *SerperClient {
	return &SerperClient{baseClient: newBaseClient(cfg, serperDefaultBase)}
}

func (c *SerperClient) Provider() entity.KeywordProvider { return entity.KeywordProviderSerper }

type serperRequest struct {
	Q   string `json:"q"`
	GL  string `json:"gl"`
	Num int    `json:"num"`
}

// Search 查询 Google 搜索结果、相关搜索与 People Also Ask
func (c *SerperClient) Search(ctx context.Context, keyword string) (*entity.KeywordData, error) {
	if c.apiKey == "" {
		return nil, apperrors.Wrap(service.ErrNotDispatched, apperrors.CodeProviderPermanent, "serper: api key is not configured")
	}
	payload, err := json.Marshal(serperRequest{Q: keyword, GL: c.country, Num: c.results})
	if err != nil {
		return nil, fmt.Errorf("encoding serper request: %w: %w", service.ErrNotDispatched, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating serper request: %w: %w", service.ErrNotDispatched, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	doc, err := c.do(req, c.Provider())
	if err != nil {
		return nil, err
	}

	return &entity.KeywordData{
		Keyword:         keyword,
		Provider:        c.Provider(),
		RelatedKeywords: collectStrings(doc.Get("relatedSearches"), "query"),
		Questions:       collectStrings(doc.Get("peopleAlsoAsk"), "question"),
		TopResults:      collectResults(doc.Get("organic"), c.results),
		FetchedAt:       time.Now().UTC(),
	}, nil
}
