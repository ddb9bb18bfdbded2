package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"article-forge-api/internal/infrastructure/persistence/postgres"
	"article-forge-api/internal/infrastructure/persistence/redis"
)

// HealthChecker 依赖健康检查
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type dependency struct {
	name    string
	checker HealthChecker
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	deps []dependency
}

// NewHealthHandler 创建健康检查处理器，PostgreSQL 与 Redis 均为必需依赖
func NewHealthHandler(pg *postgres.Client, redisClient *redis.Client) *HealthHandler {
	var deps []dependency
	if pg != nil {
		deps = append(deps, dependency{name: "postgres", checker: pg})
	} else {
		deps = append(deps, dependency{name: "postgres"})
	}
	if redisClient != nil {
		deps = append(deps, dependency{name: "redis", checker: redisClient})
	} else {
		deps = append(deps, dependency{name: "redis"})
	}
	return &HealthHandler{deps: deps}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status string `json:"status"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready 就绪检查接口
// @Summary 就绪检查
// @Description 检查 PostgreSQL 与 Redis 是否可用
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]*readinessCheck, len(h.deps))
	ready := true
	for _, d := range h.deps {
		check := &readinessCheck{}
		checks[d.name] = check
		if d.checker == nil {
			check.Status = "missing"
			check.Error = d.name + " client not configured"
			ready = false
			continue
		}

		start := time.Now()
		err := d.checker.HealthCheck(ctx)
		check.LatencyMs = time.Since(start).Milliseconds()
		if err != nil {
			check.Status = "error"
			check.Error = err.Error()
			ready = false
			continue
		}
		check.Status = "ok"
	}

	resp := readinessResponse{Status: "ok", Checks: checks}
	if !ready {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Live 存活检查接口
// @Summary 存活检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
