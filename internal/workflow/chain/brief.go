package chain

import (
	"fmt"
	"strings"

	"article-forge-api/internal/domain/entity"
	"article-forge-api/internal/workflow/node"
)

const (
	maxBriefItems   = 8
	maxSnippetRunes = 200
	defaultPersona  = "a knowledgeable, friendly subject-matter expert"
	noResearchBrief = "(no keyword research available; rely on general knowledge)"
)

func personaOrDefault(p string) string {
	if s := strings.TrimSpace(p); s != "" {
		return s
	}
	return defaultPersona
}

// ResearchBrief 将关键词研究结果压缩成提示词片段
func ResearchBrief(d *entity.KeywordData) string {
	if d.Empty() {
		return noResearchBrief
	}
	var b strings.Builder
	if len(d.RelatedKeywords) > 0 {
		b.WriteString("Related searches: ")
		b.WriteString(strings.Join(limit(d.RelatedKeywords, maxBriefItems), "; "))
		b.WriteString("\n")
	}
	if len(d.Questions) > 0 {
		b.WriteString("People also ask:\n")
		for _, q := range limit(d.Questions, maxBriefItems) {
			b.WriteString("- ")
			b.WriteString(q)
			b.WriteString("\n")
		}
	}
	if len(d.TopResults) > 0 {
		b.WriteString("Top ranking pages:\n")
		for i, r := range d.TopResults {
			if i == maxBriefItems {
				break
			}
			fmt.Fprintf(&b, "%d. %s", i+1, r.Title)
			if r.Snippet != "" {
				b.WriteString(" | ")
				b.WriteString(node.TruncateByRunes(r.Snippet, maxSnippetRunes))
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String())
}

func limit(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
