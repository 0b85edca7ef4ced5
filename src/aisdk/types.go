// Package aisdk defines the chat-completion wire types shared by the model
// clients and the structured inference layer.
package aisdk

import (
	"encoding/json"
	"time"
)

// Chat roles understood by OpenAI-compatible endpoints.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	// Name identifies the author when several share a role
	Name string `json:"name,omitempty"`
	// Metadata for message tracking
	CreatedAt time.Time `json:"-"`
}

// ToolCall represents a function call request (OpenAI format).
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"` // Always "function" for now
	Function FunctionCall `json:"function"`
}

// FunctionCall contains the function name and arguments.
type FunctionCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResponse is the outcome of executing a ToolCall.
type ToolResponse struct {
	Type     string `json:"type"`
	Content  []byte `json:"content"`
	Metadata string `json:"metadata,omitempty"`
	IsError  bool   `json:"is_error"`
}

// ChatCompletionRequest represents a request to the chat completions endpoint.
type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []*Message      `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
	TopP           *float64        `json:"top_p,omitempty"`
	Stop           []string        `json:"stop,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	User           string          `json:"user,omitempty"`
}

// ResponseFormat specifies the format of the response.
type ResponseFormat struct {
	Type       string            `json:"type"` // "text", "json_object" or "json_schema"
	JSONSchema *JSONSchemaFormat `json:"json_schema,omitempty"`
}

// JSONSchemaFormat carries the schema for "json_schema" structured output.
type JSONSchemaFormat struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Schema      json.RawMessage `json:"schema"`
	Strict      bool            `json:"strict,omitempty"`
}

// ChatCompletionResponse represents a response from the chat completions endpoint.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Content returns the first choice's message content.
func (r *ChatCompletionResponse) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// Choice represents a single completion choice.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage represents token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ModelInfo describes a model offered by an endpoint.
type ModelInfo struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Created       int64    `json:"created,omitempty"`
	Description   string   `json:"description"`
	ContextLength int      `json:"context_length"`
	OwnedBy       string   `json:"owned_by,omitempty"`
	Pricing       *Pricing `json:"pricing,omitempty"`
}

// Pricing contains model pricing information from OpenRouter
type Pricing struct {
	Prompt     string `json:"prompt"`     // Cost per input token
	Completion string `json:"completion"` // Cost per output token
}
