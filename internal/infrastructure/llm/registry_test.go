package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"article-forge-api/internal/config"
	workflowport "article-forge-api/internal/workflow/port"
	apperrors "article-forge-api/pkg/errors"
)

type fakeChatModel struct {
	mu       sync.Mutex
	calls    int
	lastOpts *model.Options
	ctxErr   error

	reply *schema.Message
	err   error
	block bool
}

func (f *fakeChatModel) Generate(ctx context.Context, _ []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	f.calls++
	f.lastOpts = model.GetCommonOptions(&model.Options{}, opts...)
	f.ctxErr = ctx.Err()
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func testConfig(timeout time.Duration) *config.Config {
	return &config.Config{LLM: config.LLMConfig{
		Providers: map[string]config.ProviderConfig{
			"primary": {Kind: "fake", Timeout: timeout},
		},
		Models: map[string]config.ModelConfig{
			"writer": {Provider: "primary", Model: "writer-2024", MaxOutputTokens: 4096, MinTemperature: 0, MaxTemperature: 1},
		},
	}}
}

func newTestRegistry(t *testing.T, fake *fakeChatModel, timeout time.Duration) *Registry {
	t.Helper()
	r := NewRegistry(testConfig(timeout))
	r.RegisterClient("primary", fake)
	return r
}

func msgs() []*schema.Message {
	return []*schema.Message{schema.SystemMessage("be brief"), schema.UserMessage("write")}
}

func TestValidateParams(t *testing.T) {
	r := NewRegistry(testConfig(time.Second))

	require.NoError(t, r.ValidateParams("writer", workflowport.GenerateParams{Temperature: 0.7, MaxOutputTokens: 1024}))

	err := r.ValidateParams("ghost", workflowport.GenerateParams{Temperature: 0.7, MaxOutputTokens: 10})
	assert.Equal(t, apperrors.CodeProviderPermanent, apperrors.CodeOf(err))

	err = r.ValidateParams("writer", workflowport.GenerateParams{Temperature: 1.5, MaxOutputTokens: 10})
	assert.Equal(t, apperrors.CodeInvalidParam, apperrors.CodeOf(err))

	err = r.ValidateParams("writer", workflowport.GenerateParams{Temperature: 0.5, MaxOutputTokens: 5000})
	assert.Equal(t, apperrors.CodeInvalidParam, apperrors.CodeOf(err))

	err = r.ValidateParams("writer", workflowport.GenerateParams{Temperature: 0.5})
	assert.Equal(t, apperrors.CodeInvalidParam, apperrors.CodeOf(err))
}

func TestInvokePassesModelOptionsAndUsage(t *testing.T) {
	fake := &fakeChatModel{reply: &schema.Message{
		Role:    schema.Assistant,
		Content: "  # Title\n\nBody  ",
		ResponseMeta: &schema.ResponseMeta{
			FinishReason: "stop",
			Usage:        &schema.TokenUsage{PromptTokens: 12, CompletionTokens: 34, TotalTokens: 46},
		},
	}}
	r := newTestRegistry(t, fake, time.Second)

	out, err := r.Invoke(context.Background(), "writer", msgs(), workflowport.GenerateParams{Temperature: 0.4, MaxOutputTokens: 800})
	require.NoError(t, err)

	assert.Equal(t, "# Title\n\nBody", out.Text)
	assert.Equal(t, "writer", out.ModelID)
	assert.Equal(t, "primary", out.Provider)
	assert.Equal(t, "stop", out.FinishReason)
	assert.Equal(t, 12, out.Usage.Prompt)
	assert.Equal(t, 34, out.Usage.Completion)

	require.NotNil(t, fake.lastOpts.Model)
	assert.Equal(t, "writer-2024", *fake.lastOpts.Model)
	assert.InDelta(t, 0.4, float64(*fake.lastOpts.Temperature), 1e-6)
	assert.Equal(t, 800, *fake.lastOpts.MaxTokens)
}

func TestInvokeRejectsBeforeCalling(t *testing.T) {
	fake := &fakeChatModel{}
	r := newTestRegistry(t, fake, time.Second)

	_, err := r.Invoke(context.Background(), "writer", msgs(), workflowport.GenerateParams{Temperature: 3, MaxOutputTokens: 100})
	require.Error(t, err)
	assert.Zero(t, fake.calls)
}

func TestInvokeEmptyOutputIsTransient(t *testing.T) {
	fake := &fakeChatModel{reply: &schema.Message{Role: schema.Assistant, Content: "   "}}
	r := newTestRegistry(t, fake, time.Second)

	_, err := r.Invoke(context.Background(), "writer", msgs(), workflowport.GenerateParams{Temperature: 0.5, MaxOutputTokens: 100})
	assert.Equal(t, apperrors.CodeProviderTransient, apperrors.CodeOf(err))
}

func TestInvokeContentFilterIsPermanent(t *testing.T) {
	fake := &fakeChatModel{reply: &schema.Message{
		Role:         schema.Assistant,
		Content:      "partial",
		ResponseMeta: &schema.ResponseMeta{FinishReason: "content_filter"},
	}}
	r := newTestRegistry(t, fake, time.Second)

	_, err := r.Invoke(context.Background(), "writer", msgs(), workflowport.GenerateParams{Temperature: 0.5, MaxOutputTokens: 100})
	assert.Equal(t, apperrors.CodeProviderPermanent, apperrors.CodeOf(err))
}

func TestInvokeIgnoresCallerCancellation(t *testing.T) {
	fake := &fakeChatModel{reply: &schema.Message{Role: schema.Assistant, Content: "done"}}
	r := newTestRegistry(t, fake, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := r.Invoke(ctx, "writer", msgs(), workflowport.GenerateParams{Temperature: 0.5, MaxOutputTokens: 100})
	require.NoError(t, err)
	assert.Equal(t, "done", out.Text)
	assert.NoError(t, fake.ctxErr)
}

func TestInvokeTimeoutIsTransient(t *testing.T) {
	fake := &fakeChatModel{block: true}
	r := newTestRegistry(t, fake, 20*time.Millisecond)

	_, err := r.Invoke(context.Background(), "writer", msgs(), workflowport.GenerateParams{Temperature: 0.5, MaxOutputTokens: 100})
	assert.Equal(t, apperrors.CodeProviderTransient, apperrors.CodeOf(err))
}

func TestClientBuiltOnce(t *testing.T) {
	var builds atomic.Int32
	fake := &fakeChatModel{reply: &schema.Message{Role: schema.Assistant, Content: "ok"}}

	r := NewRegistry(testConfig(time.Second))
	r.RegisterBuilder("fake", func(context.Context, config.ProviderConfig, string) (model.BaseChatModel, error) {
		builds.Add(1)
		return fake, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Invoke(context.Background(), "writer", msgs(), workflowport.GenerateParams{Temperature: 0.5, MaxOutputTokens: 100})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), builds.Load())
}

func TestBuilderFailureIsPermanent(t *testing.T) {
	r := NewRegistry(testConfig(time.Second))
	r.RegisterBuilder("fake", func(context.Context, config.ProviderConfig, string) (model.BaseChatModel, error) {
		return nil, errors.New("bad credentials")
	})

	_, err := r.Invoke(context.Background(), "writer", msgs(), workflowport.GenerateParams{Temperature: 0.5, MaxOutputTokens: 100})
	assert.Equal(t, apperrors.CodeProviderPermanent, apperrors.CodeOf(err))
}

func TestClassify(t *testing.T) {
	spec := ModelSpec{ID: "writer"}
	passthrough := apperrors.ErrValidationFailed.WithDetail("kept")

	tests := []struct {
		name string
		err  error
		want apperrors.ErrorCode
	}{
		{"app error passes through", passthrough, apperrors.CodeValidationFailed},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), apperrors.CodeProviderTransient},
		{"status 429 in text", errors.New("error, status code: 429, message: slow down"), apperrors.CodeProviderTransient},
		{"status 503 in text", errors.New("error, status code: 503, message: busy"), apperrors.CodeProviderTransient},
		{"status 401 in text", errors.New("error, status code: 401, message: bad key"), apperrors.CodeProviderPermanent},
		{"content policy", errors.New("response blocked by content_filter"), apperrors.CodeProviderPermanent},
		{"rate limit text", errors.New("Rate limit reached for requests"), apperrors.CodeProviderTransient},
		{"unknown", errors.New("something odd"), apperrors.CodeProviderTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperrors.CodeOf(classify(spec, tt.err)))
		})
	}
}

func TestOpenAIChatModel(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":5,"completion_tokens":7,"total_tokens":12}}`)
	}))
	defer srv.Close()

	m := NewOpenAIChatModel(config.ProviderConfig{APIKey: "sk-test", BaseURL: srv.URL + "/"}, "gpt-4o-mini")
	out, err := m.Generate(context.Background(), msgs(), model.WithTemperature(0.3), model.WithMaxTokens(256))
	require.NoError(t, err)

	assert.Equal(t, "hello", out.Content)
	assert.Equal(t, "stop", out.ResponseMeta.FinishReason)
	assert.Equal(t, 12, out.ResponseMeta.Usage.TotalTokens)
	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.EqualValues(t, 256, body["max_completion_tokens"])
	assert.Len(t, body["messages"], 2)
}

func TestOpenAIChatModelRateLimitIsTransient(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"rate limited","type":"rate_limit_error"}}`)
	}))
	defer srv.Close()

	cfg := testConfig(time.Second)
	cfg.LLM.Providers["primary"] = config.ProviderConfig{Kind: KindOpenAI, APIKey: "sk-test", BaseURL: srv.URL + "/", Timeout: time.Second}
	r := NewRegistry(cfg)

	_, err := r.Invoke(context.Background(), "writer", msgs(), workflowport.GenerateParams{Temperature: 0.5, MaxOutputTokens: 100})
	assert.Equal(t, apperrors.CodeProviderTransient, apperrors.CodeOf(err))
	assert.Equal(t, int32(1), hits.Load())
}

func TestAnthropicChatModel(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"))
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet",
			"content":[{"type":"text","text":"hi "},{"type":"text","text":"there"}],
			"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":4}}`)
	}))
	defer srv.Close()

	m := NewAnthropicChatModel(config.ProviderConfig{APIKey: "key", BaseURL: srv.URL + "/"}, "claude-sonnet")
	out, err := m.Generate(context.Background(), msgs(), model.WithMaxTokens(300))
	require.NoError(t, err)

	assert.Equal(t, "hi there", out.Content)
	assert.Equal(t, "end_turn", out.ResponseMeta.FinishReason)
	assert.Equal(t, 7, out.ResponseMeta.Usage.TotalTokens)
	assert.EqualValues(t, 300, body["max_tokens"])
	assert.Len(t, body["messages"], 1)
	assert.NotNil(t, body["system"])
}
