// Package job 管理异步文章生成任务：提交入队、查询与 worker 侧执行
package job

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"article-forge-api/internal/application/article"
	"article-forge-api/internal/domain/entity"
	"article-forge-api/internal/domain/repository"
	"article-forge-api/internal/infrastructure/messaging"
	wfmodel "article-forge-api/internal/workflow/model"
	apperrors "article-forge-api/pkg/errors"
	"article-forge-api/pkg/logger"
	"article-forge-api/pkg/metrics"
	"article-forge-api/pkg/tracer"
)

// ArticleGenerator 文章生成能力
type ArticleGenerator interface {
	Validate(req *wfmodel.GenerationRequest) error
	Generate(ctx context.Context, req *wfmodel.GenerationRequest, opts ...article.Option) (*entity.Article, error)
}

// Publisher 任务消息发布
type Publisher interface {
	PublishArticleJob(ctx context.Context, job *messaging.ArticleJobMessage) (string, error)
}

// Service 生成任务服务
type Service struct {
	jobs        repository.JobRepository
	tx          repository.Transactor
	publisher   Publisher
	generator   ArticleGenerator
	maxAttempts int

	newID func() string
}

// NewService 创建生成任务服务，maxAttempts 为单个任务最多执行次数
func NewService(
	jobs repository.JobRepository,
	tx repository.Transactor,
	publisher Publisher,
	generator ArticleGenerator,
	maxAttempts int,
) *Service {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Service{
		jobs:        jobs,
		tx:          tx,
		publisher:   publisher,
		generator:   generator,
		maxAttempts: maxAttempts,
		newID:       uuid.NewString,
	}
}

// Submit 校验请求后创建任务并入队。
// 任务记录提交后才发布消息，worker 收到消息时任务必然可见；
// 发布失败时任务标记为失败并返回 CodeMessagingError。
func (s *Service) Submit(ctx context.Context, req *wfmodel.GenerationRequest) (*entity.GenerationJob, error) {
	if err := s.generator.Validate(req); err != nil {
		return nil, err
	}

	params, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "failed to encode job params")
	}
	job := entity.NewGenerationJob(s.newID(), params)

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.jobs.Create(txCtx, job)
	})
	if err != nil {
		return nil, err
	}

	_, err = s.publisher.PublishArticleJob(ctx, &messaging.ArticleJobMessage{
		JobID:     job.ID,
		RequestID: requestIDFrom(ctx),
		TraceID:   tracer.TraceID(ctx),
	})
	if err != nil {
		pubErr := apperrors.Wrap(err, apperrors.CodeMessagingError, "failed to enqueue job")
		job.Fail(string(pubErr.Code), describe(pubErr))
		if uerr := s.jobs.Update(context.WithoutCancel(ctx), job); uerr != nil {
			logger.Error(ctx, "failed to mark unqueued job as failed", uerr, "job_id", job.ID)
		}
		return nil, pubErr
	}

	logger.Info(ctx, "article job submitted", "job_id", job.ID)
	return job, nil
}

// Get 查询任务
func (s *Service) Get(ctx context.Context, id string) (*entity.GenerationJob, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, apperrors.ErrJobNotFound
	}
	return job, nil
}

// Handle 执行一条任务消息。
// 返回普通错误表示可以重投；不可恢复的失败会把任务标记为失败并返回 NonRetryable 错误。
func (s *Service) Handle(ctx context.Context, msg *messaging.Message) error {
	var payload messaging.ArticleJobMessage
	if err := msg.UnmarshalPayload(&payload); err != nil || payload.JobID == "" {
		return messaging.NonRetryable(apperrors.ErrInvalidParam.WithDetail("malformed job message"))
	}

	ctx, span := tracer.Start(ctx, "job.handle")
	defer span.End()

	job, err := s.jobs.GetByID(ctx, payload.JobID)
	if err != nil {
		return err
	}
	if job == nil {
		return messaging.NonRetryable(apperrors.ErrJobNotFound.WithDetail(payload.JobID))
	}
	if job.Finished() {
		logger.Info(ctx, "job already finished, skipping", "status", string(job.Status))
		return nil
	}

	var req wfmodel.GenerationRequest
	if err := json.Unmarshal(job.InputParams, &req); err != nil {
		return s.finishFailed(ctx, job, apperrors.ErrValidationFailed.WithDetail("stored job params are not readable"))
	}

	if job.StartedAt != nil {
		job.RetryCount++
	}
	job.Start()
	if err := s.jobs.Update(ctx, job); err != nil {
		return err
	}

	metrics.ActiveJobs.Inc()
	defer metrics.ActiveJobs.Dec()

	result, err := s.generator.Generate(ctx, &req, article.WithObserver(s.progressObserver(job.ID)))
	if err != nil {
		tracer.Fail(span, err)
		if retryable(err) && job.RetryCount+1 < s.maxAttempts {
			return s.leaveForRetry(ctx, job, err)
		}
		return s.finishFailed(ctx, job, err)
	}

	job.Complete(result.ID)
	if err := s.jobs.Update(ctx, job); err != nil {
		return err
	}
	logger.Info(ctx, "article job completed", "article_id", result.ID, "duration_ms", job.DurationMs)
	return nil
}

// progressObserver 把状态转换写入任务进度，终态由 Handle 统一处理
func (s *Service) progressObserver(jobID string) article.Observer {
	return func(ctx context.Context, state article.State) {
		if state.Terminal() {
			return
		}
		if err := s.jobs.UpdateProgress(ctx, jobID, string(state), state.Progress()); err != nil {
			logger.Warn(ctx, "failed to update job progress", "stage", string(state), "error", err.Error())
		}
	}
}

func (s *Service) leaveForRetry(ctx context.Context, job *entity.GenerationJob, cause error) error {
	ae := apperrors.AsAppError(cause)
	job.ErrorCode = string(ae.Code)
	job.ErrorMessage = describe(ae)
	if stage, ok := article.StageOf(cause); ok {
		job.Stage = string(stage)
	}
	if err := s.jobs.Update(ctx, job); err != nil {
		logger.Warn(ctx, "failed to record job retry", "error", err.Error())
	}
	logger.Warn(ctx, "article job failed, will retry",
		"attempt", job.RetryCount+1,
		"code", string(ae.Code),
	)
	return cause
}

func (s *Service) finishFailed(ctx context.Context, job *entity.GenerationJob, cause error) error {
	ae := apperrors.AsAppError(cause)
	if stage, ok := article.StageOf(cause); ok {
		job.Stage = string(stage)
	}
	job.Fail(string(ae.Code), describe(ae))
	if err := s.jobs.Update(ctx, job); err != nil {
		return err
	}
	logger.Warn(ctx, "article job failed",
		"stage", job.Stage,
		"code", job.ErrorCode,
		"error", job.ErrorMessage,
	)
	return messaging.NonRetryable(cause)
}

// retryable 只有瞬时故障值得重投整条任务
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	switch apperrors.CodeOf(err) {
	case apperrors.CodeProviderTransient, apperrors.CodeStorageUnavailable:
		return true
	default:
		return false
	}
}

func describe(ae *apperrors.AppError) string {
	if ae.Detail != "" {
		return ae.Message + ": " + ae.Detail
	}
	return ae.Message
}

func requestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		return v
	}
	return ""
}
