package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"article-forge-api/internal/config"
	"article-forge-api/internal/domain/entity"
	"article-forge-api/internal/interfaces/http/dto"
	wfmodel "article-forge-api/internal/workflow/model"
	apperrors "article-forge-api/pkg/errors"
)

// JobService 异步生成任务服务
type JobService interface {
	Submit(ctx context.Context, req *wfmodel.GenerationRequest) (*entity.GenerationJob, error)
	Get(ctx context.Context, id string) (*entity.GenerationJob, error)
}

// JobHandler 任务处理器
type JobHandler struct {
	jobs     JobService
	defaults config.GenerationConfig
}

// NewJobHandler 创建任务处理器
func NewJobHandler(jobs JobService, cfg *config.Config) *JobHandler {
	return &JobHandler{
		jobs:     jobs,
		defaults: cfg.Generation,
	}
}

// CreateJob 提交异步生成任务
// @Summary 提交文章生成任务
// @Description 校验参数后入队，由 job-worker 异步执行
// @Tags Jobs
// @Accept json
// @Produce json
// @Param body body dto.GenerateArticleRequest true "生成参数"
// @Success 202 {object} dto.Response[dto.JobResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/articles/jobs [post]
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.GenerateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.ErrInvalidParam.WithDetail(err.Error()))
		return
	}

	job, err := h.jobs.Submit(c.Request.Context(), req.ToGenerationRequest(h.defaults))
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Accepted(c, dto.ToJobResponse(job))
}

// GetJob 获取任务详情
// @Summary 获取任务详情
// @Description 获取指定任务的状态、阶段与进度
// @Tags Jobs
// @Produce json
// @Param jid path string true "任务 ID"
// @Success 200 {object} dto.Response[dto.JobResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/jobs/{jid} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.jobs.Get(c.Request.Context(), dto.BindJobID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Success(c, dto.ToJobResponse(job))
}
