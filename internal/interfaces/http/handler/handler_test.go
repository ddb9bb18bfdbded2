package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"article-forge-api/internal/application/article"
	"article-forge-api/internal/application/quota"
	"article-forge-api/internal/config"
	"article-forge-api/internal/domain/entity"
	"article-forge-api/internal/interfaces/http/dto"
	wfmodel "article-forge-api/internal/workflow/model"
	apperrors "article-forge-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testConfig = &config.Config{
	Generation: config.GenerationConfig{DefaultTemperature: 0.7, DefaultMaxTokens: 4096},
}

type fakeGenerator struct {
	got    *wfmodel.GenerationRequest
	result *entity.Article
	err    error
}

func (f *fakeGenerator) Generate(_ context.Context, req *wfmodel.GenerationRequest, _ ...article.Option) (*entity.Article, error) {
	f.got = req
	return f.result, f.err
}

type fakeArticles struct {
	stored map[string]*entity.Article
	err    error
}

func (f *fakeArticles) Create(_ context.Context, a *entity.Article) error {
	f.stored[a.ID] = a
	return nil
}

func (f *fakeArticles) GetByID(_ context.Context, id string) (*entity.Article, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stored[id], nil
}

type fakeJobs struct {
	submitted *wfmodel.GenerationRequest
	jobs      map[string]*entity.GenerationJob
	err       error
}

func (f *fakeJobs) Submit(_ context.Context, req *wfmodel.GenerationRequest) (*entity.GenerationJob, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.submitted = req
	job := entity.NewGenerationJob("job-1", nil)
	f.jobs[job.ID] = job
	return job, nil
}

func (f *fakeJobs) Get(_ context.Context, id string) (*entity.GenerationJob, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, apperrors.ErrJobNotFound
	}
	return job, nil
}

type fakeQuota struct {
	snap map[entity.KeywordProvider]quota.Snapshot
	err  error
}

func (f *fakeQuota) Snapshot(context.Context) (map[entity.KeywordProvider]quota.Snapshot, error) {
	return f.snap, f.err
}

type stubChecker struct{ err error }

func (s stubChecker) HealthCheck(context.Context) error { return s.err }

func solarArticle() *entity.Article {
	return &entity.Article{
		ID:                 "a-1",
		Title:              "Solar Panels: A Buyer's Guide",
		Topic:              "Benefits of solar panels for homeowners",
		FocusKeyword:       "solar panels",
		Content:            "# Solar Panels: A Buyer's Guide\n\nBody",
		ContentHTML:        "<h1>Solar Panels: A Buyer's Guide</h1>\n<p>Body</p>\n",
		WordCount:          6,
		ResearchSkipReason: "quota_exhausted",
	}
}

func newEngine(gen *fakeGenerator, articles *fakeArticles, jobs *fakeJobs, q *fakeQuota) *gin.Engine {
	e := gin.New()
	ah := NewArticleHandler(gen, articles, testConfig)
	jh := NewJobHandler(jobs, testConfig)
	qh := NewQuotaHandler(q)
	e.POST("/v1/articles/generate", ah.GenerateArticle)
	e.POST("/v1/articles/jobs", jh.CreateJob)
	e.GET("/v1/articles/:id", ah.GetArticle)
	e.GET("/v1/jobs/:jid", jh.GetJob)
	e.GET("/v1/quota", qh.GetQuota)
	return e
}

func defaultEngine(gen *fakeGenerator) *gin.Engine {
	return newEngine(gen,
		&fakeArticles{stored: map[string]*entity.Article{}},
		&fakeJobs{jobs: map[string]*entity.GenerationJob{}},
		&fakeQuota{})
}

func do(t *testing.T, e *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp
}

func generateBody() map[string]any {
	return map[string]any{
		"topic":            "Benefits of solar panels for homeowners",
		"focus_keyword":    "solar panels",
		"outline_model_id": "gpt-4o-mini",
		"content_model_id": "claude-sonnet",
	}
}

func TestGenerateArticleSuccess(t *testing.T) {
	gen := &fakeGenerator{result: solarArticle()}
	w := do(t, defaultEngine(gen), http.MethodPost, "/v1/articles/generate", generateBody())

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.Response[dto.ArticleResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Solar Panels: A Buyer's Guide", resp.Data.Title)
	assert.False(t, resp.Data.Research.Used)
	assert.Equal(t, "quota_exhausted", resp.Data.Research.SkipReason)

	require.NotNil(t, gen.got)
	assert.Equal(t, 0.7, gen.got.Temperature)
	assert.Equal(t, 4096, gen.got.MaxOutputTokens)
}

func TestGenerateArticleExplicitParams(t *testing.T) {
	gen := &fakeGenerator{result: solarArticle()}
	body := generateBody()
	body["temperature"] = 0.2
	body["max_output_tokens"] = 1500
	body["skip_research"] = true

	w := do(t, defaultEngine(gen), http.MethodPost, "/v1/articles/generate", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.2, gen.got.Temperature)
	assert.Equal(t, 1500, gen.got.MaxOutputTokens)
	assert.True(t, gen.got.SkipResearch)
}

func TestGenerateArticleErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		err        error
		wantStatus int
		wantCode   apperrors.ErrorCode
		wantStage  string
	}{
		{
			name:       "malformed body",
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeInvalidParam,
		},
		{
			name:       "validation",
			body:       generateBody(),
			err:        &article.StageError{Stage: article.StateValidating, Err: apperrors.ErrValidationFailed.WithDetail("topic is required")},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeValidationFailed,
			wantStage:  "validating",
		},
		{
			name:       "permanent outline failure",
			body:       generateBody(),
			err:        &article.StageError{Stage: article.StateOutlinePending, Err: apperrors.ErrProviderPermanent},
			wantStatus: http.StatusBadGateway,
			wantCode:   apperrors.CodeProviderPermanent,
			wantStage:  "outline_pending",
		},
		{
			name:       "transient content failure",
			body:       generateBody(),
			err:        &article.StageError{Stage: article.StateContentPending, Err: apperrors.ErrProviderTransient},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   apperrors.CodeProviderTransient,
			wantStage:  "content_pending",
		},
		{
			name:       "unclassified",
			body:       generateBody(),
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperrors.CodeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{err: tt.err}
			w := do(t, defaultEngine(gen), http.MethodPost, "/v1/articles/generate", tt.body)

			require.Equal(t, tt.wantStatus, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.wantStatus, resp.Code)
			assert.Equal(t, string(tt.wantCode), resp.Error.ErrorCode)
			assert.Equal(t, tt.wantStage, resp.Error.Stage)
		})
	}
}

func TestGetArticle(t *testing.T) {
	articles := &fakeArticles{stored: map[string]*entity.Article{"a-1": solarArticle()}}
	e := newEngine(&fakeGenerator{}, articles, &fakeJobs{jobs: map[string]*entity.GenerationJob{}}, &fakeQuota{})

	w := do(t, e, http.MethodGet, "/v1/articles/a-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.Response[dto.ArticleResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "a-1", resp.Data.ID)

	w = do(t, e, http.MethodGet, "/v1/articles/missing", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(apperrors.CodeArticleNotFound), decodeError(t, w).Error.ErrorCode)

	articles.err = apperrors.ErrStorageUnavailable
	w = do(t, e, http.MethodGet, "/v1/articles/a-1", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestJobEndpoints(t *testing.T) {
	jobs := &fakeJobs{jobs: map[string]*entity.GenerationJob{}}
	e := newEngine(&fakeGenerator{}, &fakeArticles{stored: map[string]*entity.Article{}}, jobs, &fakeQuota{})

	w := do(t, e, http.MethodPost, "/v1/articles/jobs", generateBody())
	require.Equal(t, http.StatusAccepted, w.Code)
	var created dto.Response[dto.JobResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "job-1", created.Data.ID)
	assert.Equal(t, "pending", created.Data.Status)
	assert.Equal(t, 0.7, jobs.submitted.Temperature)

	w = do(t, e, http.MethodGet, "/v1/jobs/job-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, e, http.MethodGet, "/v1/jobs/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	jobs.err = apperrors.ErrValidationFailed.WithDetail("outline_model_id is required")
	w = do(t, e, http.MethodPost, "/v1/articles/jobs", generateBody())
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "outline_model_id is required", decodeError(t, w).Error.Details)
}

func TestGetQuota(t *testing.T) {
	q := &fakeQuota{snap: map[entity.KeywordProvider]quota.Snapshot{
		entity.KeywordProviderSerpAPI: {Provider: entity.KeywordProviderSerpAPI, Period: "2026-10", Used: 100, Limit: 100, Remaining: 0},
		entity.KeywordProviderSerper:  {Provider: entity.KeywordProviderSerper, Period: "lifetime", Used: 12, Limit: 2500, Remaining: 2488},
	}}
	e := newEngine(&fakeGenerator{}, &fakeArticles{}, &fakeJobs{}, q)

	w := do(t, e, http.MethodGet, "/v1/quota", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.Response[dto.QuotaResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.QuotaEntry{Used: 100, Limit: 100, Remaining: 0, Period: "2026-10"}, resp.Data["serpapi"])
	assert.Equal(t, int64(2488), resp.Data["serper"].Remaining)

	q.err = apperrors.ErrStorageUnavailable
	w = do(t, e, http.MethodGet, "/v1/quota", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		deps       []dependency
		wantStatus int
	}{
		{
			name:       "all healthy",
			deps:       []dependency{{name: "postgres", checker: stubChecker{}}, {name: "redis", checker: stubChecker{}}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "redis down",
			deps:       []dependency{{name: "postgres", checker: stubChecker{}}, {name: "redis", checker: stubChecker{err: errors.New("refused")}}},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "missing client",
			deps:       []dependency{{name: "postgres"}},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &HealthHandler{deps: tt.deps}
			e := gin.New()
			e.GET("/ready", h.Ready)
			e.GET("/live", h.Live)

			w := do(t, e, http.MethodGet, "/ready", nil)
			assert.Equal(t, tt.wantStatus, w.Code)

			w = do(t, e, http.MethodGet, "/live", nil)
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestNewHealthHandlerWithoutClients(t *testing.T) {
	h := NewHealthHandler(nil, nil)
	require.Len(t, h.deps, 2)
	assert.Nil(t, h.deps[0].checker)
	assert.Nil(t, h.deps[1].checker)
}
