package entity

import (
	"time"
)

// KeywordProvider 关键词数据源
type KeywordProvider string

const (
	// KeywordProviderSerpAPI 按月计量的数据源
	KeywordProviderSerpAPI KeywordProvider = "serpapi"
	// KeywordProviderSerper 终身免费额度的数据源
	KeywordProviderSerper KeywordProvider = "serper"
)

const (
	// MeteredMonthlyLimit 计量数据源每个自然月（UTC）的调用上限
	MeteredMonthlyLimit int64 = 100
	// FreeTierLifetimeLimit 免费数据源的终身调用上限，永不重置
	FreeTierLifetimeLimit int64 = 2500

	// LifetimePeriodKey 免费数据源的固定周期键
	LifetimePeriodKey = "lifetime"

	monthPeriodLayout = "2006-01"
)

// KeywordProviders 按优先级排列：计量数据源优先，免费数据源兜底
func KeywordProviders() []KeywordProvider {
	return []KeywordProvider{KeywordProviderSerpAPI, KeywordProviderSerper}
}

// Valid 是否为已知数据源
func (p KeywordProvider) Valid() bool {
	return p == KeywordProviderSerpAPI || p == KeywordProviderSerper
}

// Metered 是否按月计量
func (p KeywordProvider) Metered() bool {
	return p == KeywordProviderSerpAPI
}

// Limit 当前周期的调用上限
func (p KeywordProvider) Limit() int64 {
	if p.Metered() {
		return MeteredMonthlyLimit
	}
	return FreeTierLifetimeLimit
}

// PeriodKey 指定时刻所在的计费周期
func (p KeywordProvider) PeriodKey(now time.Time) string {
	if p.Metered() {
		return now.UTC().Format(monthPeriodLayout)
	}
	return LifetimePeriodKey
}

// Other 另一个数据源，用于故障转移
func (p KeywordProvider) Other() KeywordProvider {
	if p == KeywordProviderSerpAPI {
		return KeywordProviderSerper
	}
	return KeywordProviderSerpAPI
}

// UsageCounter 数据源调用计数
// 每个数据源一行，周期切换时由存储层原子地重置
type UsageCounter struct {
	Provider  KeywordProvider `json:"provider" gorm:"type:varchar(32);primaryKey"`
	PeriodKey string          `json:"period_key" gorm:"type:varchar(16);not null"`
	CallCount int64           `json:"call_count" gorm:"not null;default:0"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName 表名
func (UsageCounter) TableName() string {
	return "keyword_usage_counters"
}

// UsedIn 返回指定周期内的已用次数，旧周期的计数视为 0
func (c *UsageCounter) UsedIn(period string) int64 {
	if c == nil || c.PeriodKey != period {
		return 0
	}
	return c.CallCount
}
