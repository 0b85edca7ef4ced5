package state

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingThreadID is returned when a decoded record has no thread id.
var ErrMissingThreadID = errors.New("state: thread_id is required")

// Marshal serializes s into the persisted record layout.
func Marshal(s *ConversationState) ([]byte, error) {
	if s == nil {
		return nil, errors.New("state: nil conversation state")
	}
	if s.ThreadID == "" {
		return nil, ErrMissingThreadID
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("state: marshal %s: %w", s.ThreadID, err)
	}
	return b, nil
}

// Unmarshal decodes a persisted record and restores derived fields.
func Unmarshal(data []byte) (*ConversationState, error) {
	var s ConversationState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("state: unmarshal: %w", err)
	}
	if s.ThreadID == "" {
		return nil, ErrMissingThreadID
	}
	if s.Messages == nil {
		s.Messages = []Message{}
	}
	if s.Plans == nil {
		s.Plans = []Plan{}
	}
	if s.ToolCalls == nil {
		s.ToolCalls = []ToolCall{}
	}
	if s.Status == "" {
		s.Status = StatusIdle
	}
	s.RecomputeCounts()
	return &s, nil
}
