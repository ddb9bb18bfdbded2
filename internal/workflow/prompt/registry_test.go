package prompt

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutlineTemplateFormats(t *testing.T) {
	tpl, err := NewRegistry().ChatTemplate(PromptOutlineV1)
	require.NoError(t, err)

	msgs, err := tpl.Format(context.Background(), map[string]any{
		"topic":          "Home solar power",
		"focus_keyword":  "solar panels",
		"persona":        "practical engineer",
		"research_brief": "(none)",
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, `{"title": "...", "sections"`)
	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "Focus keyword: solar panels")
}

func TestContentTemplateFormats(t *testing.T) {
	tpl, err := NewRegistry().ChatTemplate(PromptContentV1)
	require.NoError(t, err)

	msgs, err := tpl.Format(context.Background(), map[string]any{
		"topic":          "Home solar power",
		"focus_keyword":  "solar panels",
		"persona":        "practical engineer",
		"outline":        "# Title\n\n## Intro",
		"research_brief": "(none)",
		"word_budget":    1500,
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Content, "roughly 1500 words")
	assert.Contains(t, msgs[1].Content, "## Intro")
}

func TestUnknownPrompt(t *testing.T) {
	_, err := NewRegistry().ChatTemplate(PromptID("missing_v9"))
	require.Error(t, err)
}

func TestTemplateIsCached(t *testing.T) {
	r := NewRegistry()
	a, err := r.ChatTemplate(PromptOutlineV1)
	require.NoError(t, err)
	b, err := r.ChatTemplate(PromptOutlineV1)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestRenderRejectsMissingVariable(t *testing.T) {
	_, err := NewRegistry().Render(context.Background(), PromptContentV1, map[string]any{
		"topic":         "Home solar power",
		"focus_keyword": "solar panels",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persona")
}

func TestRenderOutline(t *testing.T) {
	msgs, err := NewRegistry().Render(context.Background(), PromptOutlineV1, map[string]any{
		"topic":          "Home solar power",
		"focus_keyword":  "solar panels",
		"persona":        "practical engineer",
		"research_brief": "(none)",
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Content, "Home solar power")
}
