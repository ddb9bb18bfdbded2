package node

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject 从模型输出中截取第一个 JSON 对象。
// 模型可能在 JSON 前后夹杂说明文字或 ``` 代码块围栏。
func ExtractJSONObject(s string) string {
	raw := strings.TrimSpace(stripCodeFence(s))
	if raw == "" {
		return raw
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return raw
	}
	candidate := raw[start : end+1]
	if json.Valid([]byte(candidate)) {
		return candidate
	}

	// 末尾可能还有别的花括号，按解码器读取第一个完整对象
	dec := json.NewDecoder(strings.NewReader(raw[start:]))
	var v json.RawMessage
	if err := dec.Decode(&v); err == nil {
		return string(v)
	}
	return candidate
}

func stripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	if nl := strings.Index(t, "\n"); nl >= 0 {
		t = t[nl+1:]
	} else {
		return ""
	}
	t = strings.TrimSpace(t)
	return strings.TrimSuffix(t, "```")
}
