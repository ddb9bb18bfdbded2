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
)

const WorkflowContent = "article_content"

// 英文正文大约每个词 1.4 个 token，预留余量给标题与格式
const tokensPerWord = 1.6

type ContentChain struct {
	gen     workflowport.TextGenerator
	prompts *workflowprompt.Registry
}

func NewContentChain(gen workflowport.TextGenerator, prompts *workflowprompt.Registry) *ContentChain {
	if prompts == nil {
		prompts = workflowprompt.NewRegistry()
	}
	return &ContentChain{gen: gen, prompts: prompts}
}

// Invoke 基于大纲生成正文 Markdown
func (c *ContentChain) Invoke(ctx context.Context, in *wfmodel.ContentInput) (string, *workflowport.GeneratedText, error) {
	if c == nil || c.gen == nil {
		return "", nil, fmt.Errorf("text generator not configured")
	}
	if in == nil {
		return "", nil, fmt.Errorf("input is nil")
	}
	if in.Outline == nil || len(in.Outline.Sections) == 0 {
		return "", nil, fmt.Errorf("outline is required")
	}

	msgs, err := c.formatMessages(ctx, in)
	if err != nil {
		return "", nil, err
	}

	ctx = llmctx.WithWorkflow(ctx, WorkflowContent)
	out, err := c.gen.Invoke(ctx, in.ModelID, msgs, workflowport.GenerateParams{
		Temperature:     in.Temperature,
		MaxOutputTokens: in.MaxTokens,
	})
	if err != nil {
		return "", nil, err
	}
	return node.StripMarkdownFence(out.Text), out, nil
}

func (c *ContentChain) formatMessages(ctx context.Context, in *wfmodel.ContentInput) ([]*schema.Message, error) {
	return c.prompts.Render(ctx, workflowprompt.PromptContentV1, map[string]any{
		"topic":          strings.TrimSpace(in.Topic),
		"focus_keyword":  strings.TrimSpace(in.FocusKeyword),
		"persona":        personaOrDefault(in.Persona),
		"outline":        in.Outline.Markdown(),
		"research_brief": ResearchBrief(in.Research),
		"word_budget":    WordBudget(in.MaxTokens),
	})
}

// WordBudget 根据输出 token 上限估算目标字数
func WordBudget(maxTokens int) int {
	words := int(float64(maxTokens) / tokensPerWord)
	words = words / 100 * 100
	if words < 300 {
		return 300
	}
	return words
}
