// Package prompt 管理文章生成各阶段的提示词模板
package prompt

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

// PromptID 模板标识，版本号随模板文本变化递增
type PromptID string

const (
	PromptOutlineV1 PromptID = "outline_v1"
	PromptContentV1 PromptID = "content_v1"
)

// 各模板必须提供的变量
var requiredVars = map[PromptID][]string{
	PromptOutlineV1: {"topic", "focus_keyword", "persona", "research_brief"},
	PromptContentV1: {"topic", "focus_keyword", "persona", "research_brief", "outline", "word_budget"},
}

// Registry 模板注册表，模板按需从内嵌文件加载并缓存
type Registry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[PromptID]einoprompt.ChatTemplate),
	}
}

// Render 校验变量并渲染为 system + user 两条消息
func (r *Registry) Render(ctx context.Context, id PromptID, vars map[string]any) ([]*schema.Message, error) {
	for _, name := range requiredVars[id] {
		if _, ok := vars[name]; !ok {
			return nil, fmt.Errorf("prompt %s: missing variable %q", id, name)
		}
	}
	tpl, err := r.ChatTemplate(id)
	if err != nil {
		return nil, err
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("prompt %s: %w", id, err)
	}
	return msgs, nil
}

// ChatTemplate 返回缓存的模板，首次访问时加载
func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	tpl, ok := r.cache[id]
	r.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	tpl, err := load(id)
	if err != nil {
		return nil, err
	}
	r.cache[id] = tpl
	return tpl, nil
}

func load(id PromptID) (einoprompt.ChatTemplate, error) {
	parts := make([]string, 2)
	for i, role := range []string{"system", "user"} {
		b, err := templatesFS.ReadFile(fmt.Sprintf("templates/%s.%s.txt", id, role))
		if err != nil {
			return nil, fmt.Errorf("unknown prompt id %s: %w", id, err)
		}
		parts[i] = strings.TrimSpace(string(b))
	}
	return einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(parts[0]),
		schema.UserMessage(parts[1]),
	), nil
}
