package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	llmctx "article-forge-api/internal/domain/service"
	wfmodel "article-forge-api/internal/workflow/model"
	"article-forge-api/internal/workflow/node"
	workflowport "article-forge-api/internal/workflow/port"
	workflowprompt "article-forge-api/internal/workflow/prompt"
	apperrors "article-forge-api/pkg/errors"
)

const WorkflowOutline = "article_outline"

type OutlineChain struct {
	gen     workflowport.TextGenerator
	prompts *workflowprompt.Registry
}

func NewOutlineChain(gen workflowport.TextGenerator, prompts *workflowprompt.Registry) *OutlineChain {
	if prompts == nil {
		prompts = workflowprompt.NewRegistry()
	}
	return &OutlineChain{gen: gen, prompts: prompts}
}

// Invoke 生成并解析大纲。
// 模型返回无法解析的大纲时视为可重试的提供商错误。
func (c *OutlineChain) Invoke(ctx context.Context, in *wfmodel.OutlineInput) (*wfmodel.Outline, *workflowport.GeneratedText, error) {
	if c == nil || c.gen == nil {
		return nil, nil, fmt.Errorf("text generator not configured")
	}
	if in == nil {
		return nil, nil, fmt.Errorf("input is nil")
	}
	if strings.TrimSpace(in.ModelID) == "" {
		return nil, nil, fmt.Errorf("outline model is required")
	}

	msgs, err := c.formatMessages(ctx, in)
	if err != nil {
		return nil, nil, err
	}

	ctx = llmctx.WithWorkflow(ctx, WorkflowOutline)
	out, err := c.gen.Invoke(ctx, in.ModelID, msgs, workflowport.GenerateParams{
		Temperature:     in.Temperature,
		MaxOutputTokens: in.MaxTokens,
	})
	if err != nil {
		return nil, nil, err
	}

	outline, err := node.ParseOutline(out.Text)
	if err != nil {
		return nil, out, apperrors.Wrap(err, apperrors.CodeProviderTransient, "outline model returned an unusable outline")
	}
	return outline, out, nil
}

func (c *OutlineChain) formatMessages(ctx context.Context, in *wfmodel.OutlineInput) ([]*schema.Message, error) {
	return c.prompts.Render(ctx, workflowprompt.PromptOutlineV1, map[string]any{
		"topic":          strings.TrimSpace(in.Topic),
		"focus_keyword":  strings.TrimSpace(in.FocusKeyword),
		"persona":        personaOrDefault(in.Persona),
		"research_brief": ResearchBrief(in.Research),
	})
}
