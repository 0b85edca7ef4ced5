// Package state holds the conversation record that the agent graph mutates
// during a turn and that the session store persists between turns.
package state

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

const (
	RoleHuman Role = "human"
	RoleAgent Role = "agent"
)

// Status records whether a thread is idle or suspended waiting on a human.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusClarifying Status = "clarifying"
)

// Now is the clock used for message and state timestamps.
var Now = func() time.Time {
	return time.Now().UTC()
}

// NewID returns a fresh identifier for threads, messages, plans and tool calls.
func NewID() string {
	return uuid.New().String()
}

// Message is a single entry in the conversation history.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageCounts is derived from Messages and recomputed after every append.
type MessageCounts struct {
	Total      int `json:"total"`
	UserCount  int `json:"user_count"`
	AgentCount int `json:"agent_count"`
}

// Plan is an ordered list of subtasks produced for one research question.
type Plan struct {
	PlanID   string   `json:"plan_id"`
	Subtasks []string `json:"subtasks"`
}

// ConversationState is the full record of one thread.
type ConversationState struct {
	ThreadID      string        `json:"thread_id"`
	Messages      []Message     `json:"messages"`
	MessageCounts MessageCounts `json:"message_counts"`
	Plans         []Plan        `json:"plans"`
	ToolCalls     []ToolCall    `json:"tool_calls"`
	Relevant      *bool         `json:"relevant,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	LastUpdated   time.Time     `json:"last_updated"`
	TTLSeconds    *int64        `json:"ttl_seconds,omitempty"`

	// Suspension bookkeeping for the clarification loop.
	Status          Status `json:"status"`
	PendingQuestion string `json:"pending_question,omitempty"`
	Clarifications  int    `json:"clarifications"`
}

// New creates an empty state for threadID, generating one when empty.
func New(threadID string) *ConversationState {
	if threadID == "" {
		threadID = NewID()
	}
	now := Now()
	return &ConversationState{
		ThreadID:    threadID,
		Messages:    []Message{},
		Plans:       []Plan{},
		ToolCalls:   []ToolCall{},
		CreatedAt:   now,
		LastUpdated: now,
		Status:      StatusIdle,
	}
}

// AppendHuman appends a human message and refreshes the counts.
func (s *ConversationState) AppendHuman(content string) Message {
	return s.appendMessage(RoleHuman, content, nil)
}

// AppendAgent appends an agent message carrying metadata and refreshes the counts.
func (s *ConversationState) AppendAgent(content string, md Metadata) Message {
	return s.appendMessage(RoleAgent, content, md)
}

func (s *ConversationState) appendMessage(role Role, content string, md Metadata) Message {
	msg := Message{
		ID:        NewID(),
		Role:      role,
		Content:   content,
		Metadata:  md,
		Timestamp: Now(),
	}
	s.Messages = append(s.Messages, msg)
	s.RecomputeCounts()
	return msg
}

// RecomputeCounts rebuilds MessageCounts from Messages.
func (s *ConversationState) RecomputeCounts() {
	counts := MessageCounts{Total: len(s.Messages)}
	for _, m := range s.Messages {
		switch m.Role {
		case RoleHuman:
			counts.UserCount++
		case RoleAgent:
			counts.AgentCount++
		}
	}
	s.MessageCounts = counts
}

// Tail returns the most recent message, or nil for an empty thread.
func (s *ConversationState) Tail() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

// LastHuman returns the most recent human message, or nil.
func (s *ConversationState) LastHuman() *Message {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleHuman {
			return &s.Messages[i]
		}
	}
	return nil
}

// AppendPlan records a new plan with a fresh id and returns it.
func (s *ConversationState) AppendPlan(subtasks []string) Plan {
	if subtasks == nil {
		subtasks = []string{}
	}
	p := Plan{PlanID: NewID(), Subtasks: subtasks}
	s.Plans = append(s.Plans, p)
	return p
}

// CurrentPlan returns the latest plan, or nil when none has been made.
func (s *ConversationState) CurrentPlan() *Plan {
	if len(s.Plans) == 0 {
		return nil
	}
	return &s.Plans[len(s.Plans)-1]
}

// ToolCallsForPlan returns the tool calls recorded against planID, in order.
func (s *ConversationState) ToolCallsForPlan(planID string) []ToolCall {
	var out []ToolCall
	for _, tc := range s.ToolCalls {
		if tc.PlanID == planID {
			out = append(out, tc)
		}
	}
	return out
}

// SetRelevant stores the last classification flag.
func (s *ConversationState) SetRelevant(v bool) {
	s.Relevant = &v
}

// Suspend marks the thread as waiting on a human reply to question.
func (s *ConversationState) Suspend(question string) {
	s.Status = StatusClarifying
	s.PendingQuestion = question
}

// ClearSuspension returns the thread to idle.
func (s *ConversationState) ClearSuspension() {
	s.Status = StatusIdle
	s.PendingQuestion = ""
}

// Suspended reports whether the thread is waiting in the clarification loop.
func (s *ConversationState) Suspended() bool {
	return s.Status == StatusClarifying
}

// Touch bumps LastUpdated.
func (s *ConversationState) Touch() {
	s.LastUpdated = Now()
}

// SetTTL records the expiry budget applied when the state is persisted.
func (s *ConversationState) SetTTL(ttl time.Duration) {
	if ttl <= 0 {
		s.TTLSeconds = nil
		return
	}
	secs := int64(ttl / time.Second)
	s.TTLSeconds = &secs
}

// TTL returns the expiry budget, or zero when none is set.
func (s *ConversationState) TTL() time.Duration {
	if s.TTLSeconds == nil || *s.TTLSeconds <= 0 {
		return 0
	}
	return time.Duration(*s.TTLSeconds) * time.Second
}

// Clone returns a deep copy suitable for handing to another goroutine.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		m.Metadata = m.Metadata.Clone()
		out.Messages[i] = m
	}
	out.Plans = make([]Plan, len(s.Plans))
	for i, p := range s.Plans {
		p.Subtasks = append([]string{}, p.Subtasks...)
		out.Plans[i] = p
	}
	out.ToolCalls = make([]ToolCall, len(s.ToolCalls))
	for i, tc := range s.ToolCalls {
		out.ToolCalls[i] = tc.Clone()
	}
	if s.Relevant != nil {
		v := *s.Relevant
		out.Relevant = &v
	}
	if s.TTLSeconds != nil {
		v := *s.TTLSeconds
		out.TTLSeconds = &v
	}
	return &out
}
