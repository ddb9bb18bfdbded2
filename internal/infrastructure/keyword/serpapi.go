package keyword

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"article-forge-api/internal/config"
	"article-forge-api/internal/domain/entity"
	"article-forge-api/internal/domain/service"
	apperrors "article-forge-api/pkg/errors"
)

const serpAPIDefaultBase = "https://serpapi.com"

// SerpAPIClient 按月计量的 SerpAPI 客户端
type SerpAPIClient struct {
	baseClient
}

// NewSerpAPIClient 创建 SerpAPI 客户端
func NewSerpAPIClient(cfg config.KeywordProviderConfig) *SerpAPIClient {
	return &SerpAPIClient{baseClient: newBaseClient(cfg, serpAPIDefaultBase)}
}

func (c *SerpAPIClient) Provider() entity.KeywordProvider { return entity.KeywordProviderSerpAPI }

// Search 查询 Google 搜索结果、相关搜索与相关问题
func (c *SerpAPIClient) Search(ctx context.Context, keyword string) (*entity.KeywordData, error) {
	if c.apiKey == "" {
		return nil, apperrors.Wrap(service.ErrNotDispatched, apperrors.CodeProviderPermanent, "serpapi: api key is not configured")
	}
	params := url.Values{
		"engine":  {"google"},
		"q":       {keyword},
		"gl":      {c.country},
		"hl":      {"en"},
		"num":     {strconv.Itoa(c.results)},
		"api_key": {c.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating serpapi request: %w: %w", service.ErrNotDispatched, err)
	}

	doc, err := c.do(req, c.Provider())
	if err != nil {
		return nil, err
	}

	// SerpAPI 在无结果时也返回 error 字段，此时视为空结果而非失败
	if msg := doc.Get("error").String(); msg != "" && !strings.Contains(strings.ToLower(msg), "hasn't returned any results") {
		return nil, apperrors.Wrap(fmt.Errorf("serpapi: %s", msg), apperrors.CodeProviderPermanent, "keyword provider rejected request")
	}

	return &entity.KeywordData{
		Keyword:         keyword,
		Provider:        c.Provider(),
		RelatedKeywords: collectStrings(doc.Get("related_searches"), "query"),
		Questions:       collectStrings(doc.Get("related_questions"), "question"),
		TopResults:      collectResults(doc.Get("organic_results"), c.results),
		FetchedAt:       time.Now().UTC(),
	}, nil
}
