package article

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"article-forge-api/internal/config"
	"article-forge-api/internal/domain/entity"
	llmctx "article-forge-api/internal/domain/service"
	"article-forge-api/internal/workflow/chain"
	wfmodel "article-forge-api/internal/workflow/model"
	workflowport "article-forge-api/internal/workflow/port"
	apperrors "article-forge-api/pkg/errors"
)

const (
	solarOutline = `{"title":"Solar Panels: A Buyer's Guide","sections":[
		{"heading":"How Solar Panels Work","summary":"Photovoltaic basics"},
		{"heading":"Costs and Savings","summary":"Upfront price versus payback"}]}`
	solarContent = "# Solar Panels: A Buyer's Guide\n\n## How Solar Panels Work\n\nPanels turn sunlight into power.\n\n## Costs and Savings\n\nMost homes recover the cost within a decade.\n"
)

type reply struct {
	text string
	err  error
}

type scriptedGenerator struct {
	mu sync.Mutex

	outlineReplies []reply
	contentReplies []reply
	outlineCalls   int
	contentCalls   int
	contentPrompt  string
	outlineParams  workflowport.GenerateParams

	onOutline func()
}

func (s *scriptedGenerator) ValidateParams(modelID string, p workflowport.GenerateParams) error {
	if modelID == "ghost" {
		return apperrors.Newf(apperrors.CodeProviderPermanent, "unknown model %q", modelID)
	}
	if p.Temperature > 1 {
		return apperrors.ErrInvalidParam.WithDetail("temperature above model maximum")
	}
	return nil
}

func (s *scriptedGenerator) Invoke(ctx context.Context, modelID string, msgs []*schema.Message, p workflowport.GenerateParams) (*workflowport.GeneratedText, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var r reply
	switch llmctx.WorkflowFromContext(ctx) {
	case chain.WorkflowOutline:
		r = pick(s.outlineReplies, s.outlineCalls)
		s.outlineCalls++
		s.outlineParams = p
		if s.onOutline != nil {
			s.onOutline()
		}
	case chain.WorkflowContent:
		r = pick(s.contentReplies, s.contentCalls)
		s.contentCalls++
		s.contentPrompt = msgs[len(msgs)-1].Content
	}
	if r.err != nil {
		return nil, r.err
	}
	return &workflowport.GeneratedText{Text: r.text, ModelID: modelID, Usage: entity.TokenUsage{Prompt: 100, Completion: 200}}, nil
}

func pick(replies []reply, i int) reply {
	if i < len(replies) {
		return replies[i]
	}
	return replies[len(replies)-1]
}

type fakeResearcher struct {
	data  *entity.KeywordData
	err   error
	calls int
}

func (f *fakeResearcher) Research(_ context.Context, kw string) (*entity.KeywordData, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

type memoryArticles struct {
	stored []*entity.Article
	err    error
}

func (m *memoryArticles) Create(_ context.Context, a *entity.Article) error {
	if m.err != nil {
		return m.err
	}
	m.stored = append(m.stored, a)
	return nil
}

func (m *memoryArticles) GetByID(_ context.Context, id string) (*entity.Article, error) {
	for _, a := range m.stored {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func solarRequest() *wfmodel.GenerationRequest {
	return &wfmodel.GenerationRequest{
		Topic:           "Benefits of solar panels for homeowners",
		FocusKeyword:    "solar panels",
		Persona:         "practical energy consultant",
		OutlineModelID:  "gpt-4o-mini",
		ContentModelID:  "claude-sonnet",
		Temperature:     0.7,
		MaxOutputTokens: 3000,
	}
}

func solarResearch() *entity.KeywordData {
	return &entity.KeywordData{
		Keyword:         "solar panels",
		Provider:        entity.KeywordProviderSerper,
		RelatedKeywords: []string{"solar panel cost", "solar panel installation"},
		Questions:       []string{"Are solar panels worth it?"},
	}
}

func newTestGenerator(gen *scriptedGenerator, research Researcher, repo *memoryArticles) *Generator {
	g := NewGenerator(gen, nil, research, repo, config.GenerationConfig{
		Research:         true,
		OutlineMaxTokens: 1024,
		RetryBackoff:     config.BackoffConfig{Initial: time.Millisecond, Max: 2 * time.Millisecond, Multiplier: 2},
	})
	g.newID = func() string { return "00000000-0000-0000-0000-000000000001" }
	return g
}

func TestGenerateSolarPanels(t *testing.T) {
	gen := &scriptedGenerator{
		outlineReplies: []reply{{text: solarOutline}},
		contentReplies: []reply{{text: solarContent}},
	}
	research := &fakeResearcher{data: solarResearch()}
	repo := &memoryArticles{}

	var states []State
	observer := func(_ context.Context, s State) { states = append(states, s) }

	a, err := newTestGenerator(gen, research, repo).Generate(context.Background(), solarRequest(), WithObserver(observer))
	require.NoError(t, err)

	assert.Equal(t, "Solar Panels: A Buyer's Guide", a.Title)
	assert.Equal(t, "solar panels", a.FocusKeyword)
	assert.True(t, a.ResearchUsed)
	assert.Equal(t, "serper", a.ResearchProvider)
	assert.Empty(t, a.ResearchSkipReason)
	assert.Contains(t, a.ContentHTML, "<h2>Costs and Savings</h2>")
	assert.Positive(t, a.WordCount)
	assert.Equal(t, 2, a.Metadata.SectionCount)
	assert.Equal(t, 1, a.Metadata.OutlineAttempts)
	assert.Equal(t, 1, a.Metadata.ContentAttempts)
	assert.Equal(t, 300, a.Metadata.ContentUsage.Total())
	assert.False(t, a.Metadata.CompletedAt.Before(a.Metadata.StartedAt))

	assert.Contains(t, gen.contentPrompt, "Costs and Savings")
	assert.Contains(t, gen.contentPrompt, "solar panel cost")
	assert.Equal(t, 1024, gen.outlineParams.MaxOutputTokens)

	require.Len(t, repo.stored, 1)
	assert.Same(t, a, repo.stored[0])
	assert.Equal(t, []State{
		StateValidating, StateResearch, StateOutlinePending,
		StateContentPending, StateAssembling, StateAssembled,
	}, states)
}

func TestGenerateValidationMakesNoExternalCalls(t *testing.T) {
	cases := map[string]func(r *wfmodel.GenerationRequest){
		"blank topic":          func(r *wfmodel.GenerationRequest) { r.Topic = "   " },
		"blank keyword":        func(r *wfmodel.GenerationRequest) { r.FocusKeyword = "" },
		"no tokens":            func(r *wfmodel.GenerationRequest) { r.MaxOutputTokens = 0 },
		"temperature too high": func(r *wfmodel.GenerationRequest) { r.Temperature = 2.5 },
		"model bound":          func(r *wfmodel.GenerationRequest) { r.Temperature = 1.5 },
		"unknown model":        func(r *wfmodel.GenerationRequest) { r.ContentModelID = "ghost" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			gen := &scriptedGenerator{outlineReplies: []reply{{text: solarOutline}}, contentReplies: []reply{{text: solarContent}}}
			research := &fakeResearcher{data: solarResearch()}
			repo := &memoryArticles{}

			var states []State
			req := solarRequest()
			mutate(req)

			_, err := newTestGenerator(gen, research, repo).Generate(context.Background(), req,
				WithObserver(func(_ context.Context, s State) { states = append(states, s) }))
			require.Error(t, err)

			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
			stage, ok := StageOf(err)
			require.True(t, ok)
			assert.Equal(t, StateValidating, stage)
			assert.Zero(t, research.calls)
			assert.Zero(t, gen.outlineCalls)
			assert.Zero(t, gen.contentCalls)
			assert.Empty(t, repo.stored)
			assert.Equal(t, []State{StateValidating, StateFailed}, states)
		})
	}
}

func TestGeneratePermanentOutlineFailureSkipsContent(t *testing.T) {
	gen := &scriptedGenerator{
		outlineReplies: []reply{{err: apperrors.New(apperrors.CodeProviderPermanent, "model rejected request with HTTP 400")}},
		contentReplies: []reply{{text: solarContent}},
	}
	repo := &memoryArticles{}

	_, err := newTestGenerator(gen, &fakeResearcher{data: solarResearch()}, repo).Generate(context.Background(), solarRequest())
	require.Error(t, err)

	stage, _ := StageOf(err)
	assert.Equal(t, StateOutlinePending, stage)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeProviderPermanent))
	assert.Equal(t, 1, gen.outlineCalls)
	assert.Zero(t, gen.contentCalls)
	assert.Empty(t, repo.stored)
}

func TestGenerateRetriesTransientOnce(t *testing.T) {
	gen := &scriptedGenerator{
		outlineReplies: []reply{
			{err: apperrors.New(apperrors.CodeProviderTransient, "rate limited")},
			{text: solarOutline},
		},
		contentReplies: []reply{{text: solarContent}},
	}

	a, err := newTestGenerator(gen, &fakeResearcher{data: solarResearch()}, &memoryArticles{}).Generate(context.Background(), solarRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, gen.outlineCalls)
	assert.Equal(t, 2, a.Metadata.OutlineAttempts)
}

func TestGenerateTransientTwiceFails(t *testing.T) {
	gen := &scriptedGenerator{
		outlineReplies: []reply{{text: solarOutline}},
		contentReplies: []reply{{err: apperrors.New(apperrors.CodeProviderTransient, "timeout")}},
	}
	repo := &memoryArticles{}

	_, err := newTestGenerator(gen, &fakeResearcher{data: solarResearch()}, repo).Generate(context.Background(), solarRequest())
	require.Error(t, err)

	stage, _ := StageOf(err)
	assert.Equal(t, StateContentPending, stage)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeProviderTransient))
	assert.Equal(t, 2, gen.contentCalls)
	assert.Empty(t, repo.stored)
}

func TestGenerateWithoutResearch(t *testing.T) {
	cases := []struct {
		name   string
		res    *fakeResearcher
		reason string
	}{
		{"quota exhausted", &fakeResearcher{err: apperrors.ErrQuotaExhausted}, SkipQuotaExhausted},
		{"provider error", &fakeResearcher{err: errors.New("connection refused")}, SkipFailed},
		{"empty result", &fakeResearcher{data: &entity.KeywordData{Keyword: "solar panels"}}, SkipNoResults},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := &scriptedGenerator{
				outlineReplies: []reply{{text: solarOutline}},
				contentReplies: []reply{{text: solarContent}},
			}
			a, err := newTestGenerator(gen, tc.res, &memoryArticles{}).Generate(context.Background(), solarRequest())
			require.NoError(t, err)

			assert.False(t, a.ResearchUsed)
			assert.Empty(t, a.ResearchProvider)
			assert.Equal(t, tc.reason, a.ResearchSkipReason)
			assert.Equal(t, 1, tc.res.calls)
		})
	}
}

func TestGenerateSkipResearchByRequest(t *testing.T) {
	gen := &scriptedGenerator{outlineReplies: []reply{{text: solarOutline}}, contentReplies: []reply{{text: solarContent}}}
	research := &fakeResearcher{data: solarResearch()}

	req := solarRequest()
	req.SkipResearch = true
	a, err := newTestGenerator(gen, research, &memoryArticles{}).Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Zero(t, research.calls)
	assert.Equal(t, SkipRequested, a.ResearchSkipReason)
}

func TestGenerateStopsAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gen := &scriptedGenerator{
		outlineReplies: []reply{{text: solarOutline}},
		contentReplies: []reply{{text: solarContent}},
		onOutline:      cancel,
	}
	repo := &memoryArticles{}

	_, err := newTestGenerator(gen, &fakeResearcher{data: solarResearch()}, repo).Generate(ctx, solarRequest())
	require.Error(t, err)

	assert.Equal(t, 1, gen.outlineCalls)
	assert.Zero(t, gen.contentCalls)
	assert.Empty(t, repo.stored)
}

func TestGenerateStorageFailure(t *testing.T) {
	gen := &scriptedGenerator{outlineReplies: []reply{{text: solarOutline}}, contentReplies: []reply{{text: solarContent}}}
	repo := &memoryArticles{err: errors.New("connection reset")}

	_, err := newTestGenerator(gen, &fakeResearcher{data: solarResearch()}, repo).Generate(context.Background(), solarRequest())
	require.Error(t, err)

	stage, _ := StageOf(err)
	assert.Equal(t, StateAssembling, stage)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStorageUnavailable))
}

func TestOutlineOverrides(t *testing.T) {
	gen := &scriptedGenerator{outlineReplies: []reply{{text: solarOutline}}, contentReplies: []reply{{text: solarContent}}}

	req := solarRequest()
	temp, tokens := 0.2, 512
	req.OutlineTemperature = &temp
	req.OutlineMaxTokens = &tokens

	_, err := newTestGenerator(gen, nil, &memoryArticles{}).Generate(context.Background(), req)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, gen.outlineParams.Temperature, 1e-9)
	assert.Equal(t, 512, gen.outlineParams.MaxOutputTokens)
}

func TestStateTransitions(t *testing.T) {
	assert.True(t, StateValidating.CanTransitionTo(StateResearch))
	assert.False(t, StateValidating.CanTransitionTo(StateOutlinePending))
	assert.True(t, StateContentPending.CanTransitionTo(StateFailed))
	assert.False(t, StateAssembled.CanTransitionTo(StateFailed))
	assert.False(t, StateFailed.CanTransitionTo(StateFailed))
	assert.True(t, StateAssembled.Terminal())
	assert.Equal(t, 100, StateAssembled.Progress())
}

func TestArticleTitleFallbacks(t *testing.T) {
	outline := &wfmodel.Outline{Title: "Outline Title"}
	assert.Equal(t, "Heading", articleTitle("\n# Heading\nbody", outline, "topic"))
	assert.Equal(t, "Outline Title", articleTitle("intro paragraph", outline, "topic"))
	assert.Equal(t, "topic", articleTitle("intro", nil, "topic"))
}

func TestValidateOnly(t *testing.T) {
	gen := &scriptedGenerator{outlineReplies: []reply{{text: solarOutline}}, contentReplies: []reply{{text: solarContent}}}
	g := newTestGenerator(gen, &fakeResearcher{}, &memoryArticles{})

	require.NoError(t, g.Validate(solarRequest()))

	bad := solarRequest()
	bad.OutlineModelID = "ghost"
	err := g.Validate(bad)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
	assert.Zero(t, gen.outlineCalls)
}

func TestGetOptions(t *testing.T) {
	assert.Nil(t, GetOptions().Observer)

	called := false
	o := GetOptions(WithObserver(func(context.Context, State) { called = true }))
	require.NotNil(t, o.Observer)
	o.Observer(context.Background(), StateValidating)
	assert.True(t, called)
}
