package entity

import "time"

// SearchResult 搜索结果条目
type SearchResult struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet,omitempty"`
}

// KeywordData 关键词研究结果
type KeywordData struct {
	Keyword         string          `json:"keyword"`
	Provider        KeywordProvider `json:"provider"`
	RelatedKeywords []string        `json:"related_keywords,omitempty"`
	Questions       []string        `json:"questions,omitempty"`
	TopResults      []SearchResult  `json:"top_results,omitempty"`
	FetchedAt       time.Time       `json:"fetched_at"`
}

// Empty 是否没有任何可用于写作的数据
func (d *KeywordData) Empty() bool {
	return d == nil || (len(d.RelatedKeywords) == 0 && len(d.Questions) == 0 && len(d.TopResults) == 0)
}
