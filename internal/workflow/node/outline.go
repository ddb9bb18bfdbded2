package node

import (
	"encoding/json"
	"fmt"
	"strings"

	wfmodel "article-forge-api/internal/workflow/model"
)

// ParseOutline 解析大纲模型输出。
// 优先按 JSON 解析；模型未遵守格式时退化为按 Markdown 标题解析。
func ParseOutline(raw string) (*wfmodel.Outline, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("outline output is empty")
	}

	var out wfmodel.Outline
	if err := json.Unmarshal([]byte(ExtractJSONObject(raw)), &out); err == nil && len(out.Sections) > 0 {
		return cleanOutline(&out)
	}

	md := parseMarkdownOutline(raw)
	if len(md.Sections) == 0 {
		return nil, fmt.Errorf("outline has no sections")
	}
	return cleanOutline(md)
}

func parseMarkdownOutline(raw string) *wfmodel.Outline {
	out := &wfmodel.Outline{}
	var cur *wfmodel.OutlineSection
	flush := func() {
		if cur != nil {
			cur.Summary = strings.TrimSpace(cur.Summary)
			out.Sections = append(out.Sections, *cur)
			cur = nil
		}
	}
	for _, line := range strings.Split(stripCodeFence(raw), "\n") {
		l := strings.TrimSpace(line)
		switch {
		case l == "":
		case strings.HasPrefix(l, "# "):
			out.Title = strings.TrimSpace(strings.TrimPrefix(l, "# "))
		case strings.HasPrefix(l, "## "), strings.HasPrefix(l, "### "):
			flush()
			cur = &wfmodel.OutlineSection{Heading: strings.TrimSpace(strings.TrimLeft(l, "# "))}
		case cur != nil && (strings.HasPrefix(l, "- ") || strings.HasPrefix(l, "* ")):
			cur.Points = append(cur.Points, strings.TrimSpace(l[2:]))
		case cur != nil:
			cur.Summary += " " + l
		}
	}
	flush()
	return out
}

func cleanOutline(o *wfmodel.Outline) (*wfmodel.Outline, error) {
	o.Title = strings.TrimSpace(o.Title)
	sections := make([]wfmodel.OutlineSection, 0, len(o.Sections))
	for _, s := range o.Sections {
		s.Heading = strings.TrimSpace(s.Heading)
		if s.Heading == "" {
			continue
		}
		s.Summary = strings.TrimSpace(s.Summary)
		sections = append(sections, s)
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("outline has no sections")
	}
	o.Sections = sections
	if o.Title == "" {
		o.Title = sections[0].Heading
	}
	return o, nil
}
