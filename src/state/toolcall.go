package state

import (
	"encoding/json"
)

// ToolCall records one tool invocation made while executing a plan.
type ToolCall struct {
	ToolID       string          `json:"tool_id"`
	PlanID       string          `json:"plan_id"`
	Subtask      string          `json:"subtask,omitempty"`
	Tool         string          `json:"tool"`
	Parameters   map[string]any  `json:"parameters"`
	ToolResponse json.RawMessage `json:"tool_response"`
	Failed       bool            `json:"failed,omitempty"`
}

// toolFailure is the payload stored in ToolResponse when a call fails.
type toolFailure struct {
	Error string `json:"error"`
}

// NewToolCall creates a record for a call against planID with a fresh id.
func NewToolCall(planID, subtask, tool string, params map[string]any) ToolCall {
	if params == nil {
		params = map[string]any{}
	}
	return ToolCall{
		ToolID:     NewID(),
		PlanID:     planID,
		Subtask:    subtask,
		Tool:       tool,
		Parameters: params,
	}
}

// Succeed stores the tool's result.
func (tc *ToolCall) Succeed(result json.RawMessage) {
	if len(result) == 0 {
		result = json.RawMessage("null")
	}
	tc.ToolResponse = result
	tc.Failed = false
}

// Fail stores an error marker as the tool's result.
func (tc *ToolCall) Fail(reason string) {
	b, err := json.Marshal(toolFailure{Error: reason})
	if err != nil {
		b = []byte(`{"error":"tool call failed"}`)
	}
	tc.ToolResponse = b
	tc.Failed = true
}

// FailureReason returns the recorded error text for a failed call.
func (tc ToolCall) FailureReason() string {
	if !tc.Failed {
		return ""
	}
	var f toolFailure
	if err := json.Unmarshal(tc.ToolResponse, &f); err != nil {
		return string(tc.ToolResponse)
	}
	return f.Error
}

// Clone returns a copy that shares no mutable storage with tc.
func (tc ToolCall) Clone() ToolCall {
	out := tc
	if tc.Parameters != nil {
		out.Parameters = make(map[string]any, len(tc.Parameters))
		for k, v := range tc.Parameters {
			out.Parameters[k] = v
		}
	}
	if tc.ToolResponse != nil {
		out.ToolResponse = append(json.RawMessage(nil), tc.ToolResponse...)
	}
	return out
}
