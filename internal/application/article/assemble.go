package article

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"article-forge-api/internal/domain/entity"
	wfmodel "article-forge-api/internal/workflow/model"
	"article-forge-api/internal/workflow/node"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderHTML 将 Markdown 正文渲染为 HTML
func RenderHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// articleTitle 优先使用正文一级标题，其次大纲标题，最后退回主题
func articleTitle(content string, outline *wfmodel.Outline, topic string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
		break
	}
	if outline != nil && strings.TrimSpace(outline.Title) != "" {
		return strings.TrimSpace(outline.Title)
	}
	return topic
}

// researchOutcome 研究阶段结果
type researchOutcome struct {
	data       *entity.KeywordData
	skipReason string
}

func (r researchOutcome) used() bool {
	return r.data != nil && !r.data.Empty()
}

func assemble(id string, req *wfmodel.GenerationRequest, research researchOutcome, outline *wfmodel.Outline, content string, meta entity.GenerationMetadata) (*entity.Article, error) {
	html, err := RenderHTML(content)
	if err != nil {
		return nil, err
	}
	a := &entity.Article{
		ID:                 id,
		Title:              node.TruncateByRunes(articleTitle(content, outline, req.Topic), 512),
		Topic:              req.Topic,
		FocusKeyword:       req.FocusKeyword,
		Persona:            req.Persona,
		Content:            content,
		ContentHTML:        html,
		WordCount:          node.CountWords(content),
		ResearchUsed:       research.used(),
		ResearchSkipReason: research.skipReason,
		Metadata:           meta,
	}
	if a.ResearchUsed {
		a.ResearchProvider = string(research.data.Provider)
	}
	a.Metadata.SectionCount = len(outline.Sections)
	return a, nil
}
