// Package research 提供受额度约束的关键词研究
package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"article-forge-api/internal/domain/entity"
	"article-forge-api/internal/domain/service"
	apperrors "article-forge-api/pkg/errors"
	"article-forge-api/pkg/logger"
	"article-forge-api/pkg/metrics"
)

const (
	defaultCallTimeout   = 15 * time.Second
	defaultRecordBackoff = 100 * time.Millisecond
	recordMaxTries       = 3
)

// Budget 数据源额度判定
type Budget interface {
	ChooseProvider(ctx context.Context) (entity.KeywordProvider, error)
	CanProceed(ctx context.Context, provider entity.KeywordProvider) (bool, error)
}

// UsageRecorder 数据源调用记账
type UsageRecorder interface {
	RecordCall(ctx context.Context, provider entity.KeywordProvider) (*entity.UsageCounter, error)
}

// Option 配置项
type Option func(*Service)

// WithCallTimeout 单次数据源调用超时
func WithCallTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Service 关键词研究服务
type Service struct {
	budget      Budget
	recorder    UsageRecorder
	researchers map[entity.KeywordProvider]service.KeywordResearcher
	timeout     time.Duration

	recordBackoff time.Duration
}

// NewService 创建关键词研究服务，researchers 按 Provider() 注册
func NewService(budget Budget, recorder UsageRecorder, researchers []service.KeywordResearcher, opts ...Option) *Service {
	s := &Service{
		budget:      budget,
		recorder:    recorder,
		researchers: make(map[entity.KeywordProvider]service.KeywordResearcher, len(researchers)),
		timeout:     defaultCallTimeout,

		recordBackoff: defaultRecordBackoff,
	}
	for _, r := range researchers {
		if r != nil {
			s.researchers[r.Provider()] = r
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Research 选择有额度的数据源查询关键词数据。
// 额度用尽时立即返回 ErrQuotaExhausted，不发出调用也不记账；
// 已发出的调用无论成败都会记账，未发出的请求不记账；首选数据源失败时，若另一数据源仍有额度则切换一次。
func (s *Service) Research(ctx context.Context, keyword string) (*entity.KeywordData, error) {
	kw := strings.TrimSpace(keyword)
	if kw == "" {
		return nil, apperrors.ErrValidationFailed.WithDetail("focus keyword is required for research")
	}

	provider, err := s.budget.ChooseProvider(ctx)
	if err != nil {
		return nil, err
	}

	data, err := s.dispatch(ctx, provider, kw)
	if err == nil {
		return data, nil
	}

	alt := provider.Other()
	ok, budgetErr := s.budget.CanProceed(ctx, alt)
	if budgetErr != nil || !ok {
		return nil, err
	}
	logger.Warn(ctx, "keyword provider failed, switching provider",
		"provider", string(provider),
		"fallback", string(alt),
		"error", err.Error(),
	)
	return s.dispatch(ctx, alt, kw)
}

func (s *Service) dispatch(ctx context.Context, provider entity.KeywordProvider, keyword string) (*entity.KeywordData, error) {
	r, ok := s.researchers[provider]
	if !ok {
		return nil, apperrors.Wrap(service.ErrNotDispatched, apperrors.CodeProviderPermanent, fmt.Sprintf("keyword provider %s is not configured", provider))
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	start := time.Now()
	data, err := r.Search(callCtx, keyword)
	metrics.KeywordCallDuration.WithLabelValues(string(provider)).Observe(time.Since(start).Seconds())

	if err != nil && errors.Is(err, service.ErrNotDispatched) {
		metrics.KeywordCallsTotal.WithLabelValues(string(provider), "not_dispatched").Inc()
		return nil, err
	}
	s.record(ctx, provider)

	if err != nil {
		metrics.KeywordCallsTotal.WithLabelValues(string(provider), "error").Inc()
		if !apperrors.IsAppError(err) {
			err = apperrors.Wrap(err, apperrors.CodeProviderTransient, fmt.Sprintf("keyword provider %s failed", provider))
		}
		return nil, err
	}
	metrics.KeywordCallsTotal.WithLabelValues(string(provider), "success").Inc()

	if data == nil {
		data = &entity.KeywordData{}
	}
	data.Keyword = keyword
	data.Provider = provider
	if data.FetchedAt.IsZero() {
		data.FetchedAt = time.Now().UTC()
	}
	return data, nil
}

// record 调用已发出后记账。存储故障时短暂重试，仍失败则告警放行
func (s *Service) record(ctx context.Context, provider entity.KeywordProvider) {
	rctx := context.WithoutCancel(ctx)
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.recordBackoff

	_, err := backoff.Retry(rctx, func() (*entity.UsageCounter, error) {
		c, err := s.recorder.RecordCall(rctx, provider)
		if err != nil && !apperrors.HasCode(err, apperrors.CodeStorageUnavailable) {
			return nil, backoff.Permanent(err)
		}
		return c, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(recordMaxTries))
	if err != nil {
		metrics.QuotaRecordFailures.WithLabelValues(string(provider)).Inc()
		logger.Error(ctx, "keyword usage not recorded", err, "provider", string(provider))
	}
}
