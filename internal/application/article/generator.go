// Package article 编排两阶段文章生成：可选关键词研究、大纲、正文、组装
package article

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"article-forge-api/internal/config"
	"article-forge-api/internal/domain/entity"
	"article-forge-api/internal/domain/repository"
	"article-forge-api/internal/workflow/chain"
	wfmodel "article-forge-api/internal/workflow/model"
	workflowport "article-forge-api/internal/workflow/port"
	workflowprompt "article-forge-api/internal/workflow/prompt"
	apperrors "article-forge-api/pkg/errors"
	"article-forge-api/pkg/logger"
	"article-forge-api/pkg/metrics"
	"article-forge-api/pkg/tracer"
)

// 每个模型阶段最多调用两次：首次 + 一次瞬时失败重试
const stageMaxTries = 2

// 研究跳过原因
const (
	SkipRequested      = "skipped_by_request"
	SkipDisabled       = "research_disabled"
	SkipQuotaExhausted = "quota_exhausted"
	SkipFailed         = "research_failed"
	SkipNoResults      = "no_results"
)

// Researcher 关键词研究能力
type Researcher interface {
	Research(ctx context.Context, focusKeyword string) (*entity.KeywordData, error)
}

// Option 单次生成选项
type Option func(*Options)

// Options 单次生成选项集合
type Options struct {
	Observer Observer
}

// WithObserver 订阅状态转换
func WithObserver(o Observer) Option {
	return func(opts *Options) {
		opts.Observer = o
	}
}

// GetOptions 合并生成选项，供 Generator 的替身实现读取
func GetOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Generator 文章生成编排器
type Generator struct {
	gen      workflowport.TextGenerator
	outline  *chain.OutlineChain
	content  *chain.ContentChain
	research Researcher
	articles repository.ArticleRepository

	researchEnabled  bool
	outlineMaxTokens int
	retryBackoff     config.BackoffConfig

	now   func() time.Time
	newID func() string
}

// NewGenerator 创建文章生成编排器
func NewGenerator(
	gen workflowport.TextGenerator,
	prompts *workflowprompt.Registry,
	research Researcher,
	articles repository.ArticleRepository,
	cfg config.GenerationConfig,
) *Generator {
	outlineMax := cfg.OutlineMaxTokens
	if outlineMax <= 0 {
		outlineMax = 1024
	}
	return &Generator{
		gen:              gen,
		outline:          chain.NewOutlineChain(gen, prompts),
		content:          chain.NewContentChain(gen, prompts),
		research:         research,
		articles:         articles,
		researchEnabled:  cfg.Research,
		outlineMaxTokens: outlineMax,
		retryBackoff:     cfg.RetryBackoff,
		now:              time.Now,
		newID:            func() string { return uuid.NewString() },
	}
}

// Generate 执行完整生成流程。
// 任一阶段失败都会终止后续阶段，错误以 StageError 标注失败阶段；大纲不会单独持久化。
func (g *Generator) Generate(ctx context.Context, req *wfmodel.GenerationRequest, opts ...Option) (*entity.Article, error) {
	o := GetOptions(opts...)

	ctx, span := tracer.Start(ctx, "article.generate")
	defer span.End()

	started := g.now()
	r := newRun(ctx, o.Observer)

	article, err := g.execute(ctx, r, req, started)
	duration := g.now().Sub(started).Seconds()
	if err != nil {
		failedAt := r.state
		r.fail(ctx)

		metrics.ArticleGenerationTotal.WithLabelValues("failed", string(failedAt)).Inc()
		metrics.ArticleGenerationDuration.WithLabelValues("failed").Observe(duration)
		tracer.Fail(span, err)
		logger.Warn(ctx, "article generation failed",
			"stage", string(failedAt),
			"code", string(apperrors.CodeOf(err)),
			"error", err.Error(),
		)
		return nil, err
	}

	metrics.ArticleGenerationTotal.WithLabelValues("success", string(StateAssembled)).Inc()
	metrics.ArticleGenerationDuration.WithLabelValues("success").Observe(duration)
	metrics.ArticleWordCount.Observe(float64(article.WordCount))
	span.SetAttributes(
		attribute.String("article.id", article.ID),
		attribute.Int("article.word_count", article.WordCount),
		attribute.Bool("article.research_used", article.ResearchUsed),
	)
	logger.Info(ctx, "article generated",
		"article_id", article.ID,
		"word_count", article.WordCount,
		"research_used", article.ResearchUsed,
		"duration_ms", int64(duration*1000),
	)
	return article, nil
}

// Validate 只执行参数校验，不发起任何外部调用
func (g *Generator) Validate(req *wfmodel.GenerationRequest) error {
	if _, err := g.validate(req); err != nil {
		return stageError(StateValidating, err)
	}
	return nil
}

func (g *Generator) execute(ctx context.Context, r *run, req *wfmodel.GenerationRequest, started time.Time) (*entity.Article, error) {
	plan, err := g.validate(req)
	if err != nil {
		return nil, stageError(StateValidating, err)
	}

	if err := g.enter(ctx, r, StateResearch); err != nil {
		return nil, err
	}
	research := g.runResearch(ctx, req)

	if err := g.enter(ctx, r, StateOutlinePending); err != nil {
		return nil, err
	}
	outlineIn := &wfmodel.OutlineInput{
		ModelID:      req.OutlineModelID,
		Topic:        req.Topic,
		FocusKeyword: req.FocusKeyword,
		Persona:      req.Persona,
		Research:     research.data,
		Temperature:  plan.outline.Temperature,
		MaxTokens:    plan.outline.MaxOutputTokens,
	}
	var outline *wfmodel.Outline
	outlineOut, outlineAttempts, err := callWithRetry(ctx, g, StateOutlinePending, func() (*workflowport.GeneratedText, error) {
		o, out, err := g.outline.Invoke(ctx, outlineIn)
		if err != nil {
			return nil, err
		}
		outline = o
		return out, nil
	})
	if err != nil {
		return nil, stageError(StateOutlinePending, err)
	}

	if err := g.enter(ctx, r, StateContentPending); err != nil {
		return nil, err
	}
	contentIn := &wfmodel.ContentInput{
		ModelID:      req.ContentModelID,
		Topic:        req.Topic,
		FocusKeyword: req.FocusKeyword,
		Persona:      req.Persona,
		Outline:      outline,
		Research:     research.data,
		Temperature:  plan.content.Temperature,
		MaxTokens:    plan.content.MaxOutputTokens,
	}
	var content string
	contentOut, contentAttempts, err := callWithRetry(ctx, g, StateContentPending, func() (*workflowport.GeneratedText, error) {
		text, out, err := g.content.Invoke(ctx, contentIn)
		if err != nil {
			return nil, err
		}
		content = text
		return out, nil
	})
	if err != nil {
		return nil, stageError(StateContentPending, err)
	}

	if err := g.enter(ctx, r, StateAssembling); err != nil {
		return nil, err
	}
	meta := entity.GenerationMetadata{
		OutlineModelID:  req.OutlineModelID,
		ContentModelID:  req.ContentModelID,
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxOutputTokens,
		OutlineUsage:    outlineOut.Usage,
		ContentUsage:    contentOut.Usage,
		OutlineAttempts: outlineAttempts,
		ContentAttempts: contentAttempts,
		StartedAt:       started.UTC(),
		CompletedAt:     g.now().UTC(),
	}
	article, err := assemble(g.newID(), req, research, outline, content, meta)
	if err != nil {
		return nil, stageError(StateAssembling, apperrors.Wrap(err, apperrors.CodeGenerationFailed, "failed to render article"))
	}
	if g.articles != nil {
		if err := g.articles.Create(ctx, article); err != nil {
			if !apperrors.IsAppError(err) {
				err = apperrors.Wrap(err, apperrors.CodeStorageUnavailable, "failed to persist article")
			}
			return nil, stageError(StateAssembling, err)
		}
	}

	if err := r.advance(ctx, StateAssembled); err != nil {
		return nil, stageError(StateAssembling, err)
	}
	return article, nil
}

// enter 在进入下一阶段前检查取消
func (g *Generator) enter(ctx context.Context, r *run, next State) error {
	if err := ctx.Err(); err != nil {
		return stageError(r.state, apperrors.Wrap(err, apperrors.CodeGenerationFailed, "generation cancelled"))
	}
	if err := r.advance(ctx, next); err != nil {
		return stageError(r.state, err)
	}
	return nil
}

// runResearch 关键词研究是软依赖：额度用尽或失败都只记录跳过原因
func (g *Generator) runResearch(ctx context.Context, req *wfmodel.GenerationRequest) researchOutcome {
	switch {
	case req.SkipResearch:
		return researchOutcome{skipReason: SkipRequested}
	case !g.researchEnabled || g.research == nil:
		return researchOutcome{skipReason: SkipDisabled}
	}

	data, err := g.research.Research(ctx, req.FocusKeyword)
	switch {
	case err == nil && !data.Empty():
		return researchOutcome{data: data}
	case err == nil:
		return researchOutcome{skipReason: SkipNoResults}
	case apperrors.HasCode(err, apperrors.CodeQuotaExhausted):
		logger.Info(ctx, "keyword research skipped, quota exhausted", "focus_keyword", req.FocusKeyword)
		return researchOutcome{skipReason: SkipQuotaExhausted}
	default:
		logger.Warn(ctx, "keyword research failed, continuing without it",
			"focus_keyword", req.FocusKeyword,
			"error", err.Error(),
		)
		return researchOutcome{skipReason: SkipFailed}
	}
}

// callWithRetry 对瞬时失败重试一次，永久失败立即返回
func callWithRetry(ctx context.Context, g *Generator, stage State, op func() (*workflowport.GeneratedText, error)) (*workflowport.GeneratedText, int, error) {
	attempts := 0
	out, err := backoff.Retry(ctx, func() (*workflowport.GeneratedText, error) {
		attempts++
		out, err := op()
		if err == nil {
			return out, nil
		}
		if !apperrors.HasCode(err, apperrors.CodeProviderTransient) {
			return nil, backoff.Permanent(err)
		}
		if attempts < stageMaxTries {
			metrics.ArticleStageRetries.WithLabelValues(string(stage)).Inc()
			logger.Warn(ctx, "model stage failed, retrying",
				"stage", string(stage),
				"attempt", attempts,
				"error", err.Error(),
			)
		}
		return nil, err
	}, backoff.WithBackOff(g.newBackOff()), backoff.WithMaxTries(stageMaxTries))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !apperrors.IsAppError(err) {
			return nil, attempts, apperrors.Wrap(ctxErr, apperrors.CodeGenerationFailed, "generation cancelled")
		}
		return nil, attempts, err
	}
	return out, attempts, nil
}

func (g *Generator) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	if g.retryBackoff.Initial > 0 {
		b.InitialInterval = g.retryBackoff.Initial
	}
	if g.retryBackoff.Max > 0 {
		b.MaxInterval = g.retryBackoff.Max
	}
	if g.retryBackoff.Multiplier > 0 {
		b.Multiplier = g.retryBackoff.Multiplier
	}
	return b
}
