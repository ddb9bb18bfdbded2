// Package keyword 提供关键词数据源客户端
package keyword

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"article-forge-api/internal/config"
	"article-forge-api/internal/domain/entity"
	apperrors "article-forge-api/pkg/errors"
)

const (
	maxResponseBytes = 4 << 20
	defaultResults   = 10
	defaultCountry   = "us"
	userAgent        = "article-forge-api/1.0"
)

type baseClient struct {
	http    *http.Client
	apiKey  string
	baseURL string
	country string
	results int
}

func newBaseClient(cfg config.KeywordProviderConfig, defaultBase string) baseClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBase
	}
	country := strings.TrimSpace(cfg.Country)
	if country == "" {
		country = defaultCountry
	}
	results := cfg.Results
	if results <= 0 {
		results = defaultResults
	}
	return baseClient{
		http:    &http.Client{Timeout: timeout},
		apiKey:  cfg.APIKey,
		baseURL: base,
		country: country,
		results: results,
	}
}

// do 发送请求并返回已校验的 JSON 响应体
func (c baseClient) do(req *http.Request, provider entity.KeywordProvider) (gjson.Result, error) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, classifyTransportError(provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return gjson.Result{}, apperrors.Wrap(err, apperrors.CodeProviderTransient, fmt.Sprintf("%s: reading response", provider))
	}
	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, statusError(provider, resp.StatusCode, body)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, apperrors.New(apperrors.CodeProviderTransient, fmt.Sprintf("%s: response is not valid JSON", provider))
	}
	return gjson.ParseBytes(body), nil
}

// classifyTransportError 连接失败与超时均为暂时性错误
func classifyTransportError(provider entity.KeywordProvider, err error) error {
	return apperrors.Wrap(err, apperrors.CodeProviderTransient, fmt.Sprintf("%s: request failed", provider))
}

// statusError 429 与 5xx 视为暂时性错误，其余 4xx 为永久性错误
func statusError(provider entity.KeywordProvider, status int, body []byte) error {
	detail := gjson.GetBytes(body, "error").String()
	if detail == "" {
		detail = gjson.GetBytes(body, "message").String()
	}
	if detail == "" {
		detail = http.StatusText(status)
	}
	err := fmt.Errorf("%s returned HTTP %d: %s", provider, status, detail)
	if status == http.StatusTooManyRequests || status >= 500 {
		return apperrors.Wrap(err, apperrors.CodeProviderTransient, "keyword provider temporarily unavailable")
	}
	return apperrors.Wrap(err, apperrors.CodeProviderPermanent, "keyword provider rejected request")
}

func collectStrings(arr gjson.Result, path string) []string {
	var out []string
	seen := make(map[string]struct{})
	arr.ForEach(func(_, v gjson.Result) bool {
		s := strings.TrimSpace(v.Get(path).String())
		if s == "" {
			return true
		}
		if _, dup := seen[strings.ToLower(s)]; dup {
			return true
		}
		seen[strings.ToLower(s)] = struct{}{}
		out = append(out, s)
		return true
	})
	return out
}

func collectResults(arr gjson.Result, limit int) []entity.SearchResult {
	var out []entity.SearchResult
	arr.ForEach(func(_, v gjson.Result) bool {
		link := v.Get("link").String()
		if link == "" {
			return true
		}
		pos := int(v.Get("position").Int())
		if pos == 0 {
			pos = len(out) + 1
		}
		out = append(out, entity.SearchResult{
			Position: pos,
			Title:    strings.TrimSpace(v.Get("title").String()),
			Link:     link,
			Snippet:  strings.TrimSpace(v.Get("snippet").String()),
		})
		return len(out) < limit
	})
	return out
}
