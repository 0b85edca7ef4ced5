package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSON pulls a JSON object out of free-form model output. Small local
// models often wrap their answer in code fences or surround it with prose.
func ExtractJSON(content string) (json.RawMessage, error) {
	s := strings.TrimSpace(content)
	if s == "" {
		return nil, ErrNoJSON
	}

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	if json.Valid([]byte(s)) && strings.HasPrefix(s, "{") {
		return json.RawMessage(s), nil
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return nil, ErrNoJSON
	}
	candidate := s[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil, ErrNoJSON
	}
	return json.RawMessage(candidate), nil
}
