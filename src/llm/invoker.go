// Package llm is the structured inference boundary: it sends a prompt to a
// chat model, asks for a JSON document matching a schema, and returns either a
// decoded value or a typed *Error.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	jsonschema "github.com/swaggest/jsonschema-go"

	"github.com/loxresearch/genie/src/aisdk"
	"github.com/loxresearch/genie/src/orclient"
	"github.com/loxresearch/genie/src/schema"
)

// Schema is a named response schema compiled for validation.
type Schema struct {
	Name      string
	validator *schema.Validator
	strict    bool
}

// NewSchema compiles s under name. The schema is requested in strict mode
// unless Lenient is applied.
func NewSchema(name string, s *jsonschema.Schema) (*Schema, error) {
	v, err := schema.Compile(s)
	if err != nil {
		return nil, fmt.Errorf("llm: schema %s: %w", name, err)
	}
	return &Schema{Name: name, validator: v, strict: true}, nil
}

// Lenient returns a copy that is requested without strict decoding. Strict
// mode rejects open objects, so schemas carrying free-form maps need this.
// The response is still validated locally.
func (s *Schema) Lenient() *Schema {
	out := *s
	out.strict = false
	return &out
}

// Strict reports whether the schema is requested in strict mode.
func (s *Schema) Strict() bool {
	return s.strict
}

// MustSchema is NewSchema that panics on error, for package-level schemas.
func MustSchema(name string, s *jsonschema.Schema) *Schema {
	out, err := NewSchema(name, s)
	if err != nil {
		panic(err)
	}
	return out
}

// Raw returns the JSON schema document.
func (s *Schema) Raw() json.RawMessage {
	return s.validator.Raw()
}

// Request is one structured inference call.
type Request struct {
	// Node selects per-node model settings.
	Node     string
	System   string
	Messages []*aisdk.Message
	Schema   *Schema
}

// Invoker performs structured inference. On success out holds the decoded
// response; on failure the returned error is an *Error.
type Invoker interface {
	Invoke(ctx context.Context, req Request, out any) error
}

// ModelSettings configures the model used for one node.
type ModelSettings struct {
	Model       string
	Temperature *float64
	MaxTokens   int
}

// Config configures a ChatInvoker.
type Config struct {
	Client   aisdk.ModelClient
	Default  ModelSettings
	Nodes    map[string]ModelSettings
	Timeout  time.Duration
	Logger   *slog.Logger
	// JSONMode sends response_format=json_object instead of json_schema, for
	// servers without schema-constrained decoding.
	JSONMode bool
}

// ChatInvoker implements Invoker over a chat completion client.
type ChatInvoker struct {
	client   aisdk.ModelClient
	def      ModelSettings
	nodes    map[string]ModelSettings
	timeout  time.Duration
	jsonMode bool
	logger   *slog.Logger
}

var _ Invoker = (*ChatInvoker)(nil)

// New builds a ChatInvoker.
func New(cfg Config) (*ChatInvoker, error) {
	if cfg.Client == nil {
		return nil, errors.New("llm: model client is required")
	}
	if cfg.Default.Model == "" {
		return nil, errors.New("llm: default model is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatInvoker{
		client:   cfg.Client,
		def:      cfg.Default,
		nodes:    cfg.Nodes,
		timeout:  cfg.Timeout,
		jsonMode: cfg.JSONMode,
		logger:   logger.With("component", "llm"),
	}, nil
}

// Settings returns the effective model settings for node.
func (c *ChatInvoker) Settings(node string) ModelSettings {
	s, ok := c.nodes[node]
	if !ok {
		return c.def
	}
	if s.Model == "" {
		s.Model = c.def.Model
	}
	if s.Temperature == nil {
		s.Temperature = c.def.Temperature
	}
	if s.MaxTokens == 0 {
		s.MaxTokens = c.def.MaxTokens
	}
	return s
}

// Invoke sends req and decodes the validated response into out.
func (c *ChatInvoker) Invoke(ctx context.Context, req Request, out any) error {
	if req.Schema == nil {
		return &Error{Node: req.Node, Kind: KindMalformed, Err: ErrNoSchema}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	settings := c.Settings(req.Node)
	logger := c.logger.With("node", req.Node, "model", settings.Model, "schema", req.Schema.Name)

	chatReq := &aisdk.ChatCompletionRequest{
		Model:       settings.Model,
		Messages:    c.buildMessages(req),
		Temperature: settings.Temperature,
	}
	if settings.MaxTokens > 0 {
		mt := settings.MaxTokens
		chatReq.MaxTokens = &mt
	}
	if c.jsonMode {
		chatReq.ResponseFormat = &aisdk.ResponseFormat{Type: "json_object"}
	} else {
		chatReq.ResponseFormat = &aisdk.ResponseFormat{
			Type: "json_schema",
			JSONSchema: &aisdk.JSONSchemaFormat{
				Name:   req.Schema.Name,
				Schema: req.Schema.Raw(),
				Strict: req.Schema.strict,
			},
		}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		kind := KindTransport
		if errors.Is(err, orclient.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = KindTimeout
		}
		logger.Warn("inference call failed", "kind", kind, "error", err)
		return &Error{Node: req.Node, Kind: kind, Err: err}
	}

	content := resp.Content()
	if strings.TrimSpace(content) == "" {
		return &Error{Node: req.Node, Kind: KindEmpty, Err: orclient.ErrEmptyResponse}
	}

	raw, err := ExtractJSON(content)
	if err != nil {
		logger.Warn("model output is not JSON", "content", truncate(content, 200))
		return &Error{Node: req.Node, Kind: KindMalformed, Err: err}
	}
	if err := req.Schema.validator.ValidateJSON(raw); err != nil {
		logger.Warn("model output failed schema validation", "error", err)
		return &Error{Node: req.Node, Kind: KindSchema, Err: err}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Node: req.Node, Kind: KindMalformed, Err: err}
	}

	logger.Debug("inference complete", "duration", time.Since(start), "tokens", resp.Usage.TotalTokens)
	return nil
}

// buildMessages prefixes the conversation with the system prompt and the
// schema the reply must follow.
func (c *ChatInvoker) buildMessages(req Request) []*aisdk.Message {
	system := req.System
	if system != "" {
		system += "\n\n"
	}
	system += "Respond only with a JSON object matching this schema:\n" + string(req.Schema.Raw())

	msgs := make([]*aisdk.Message, 0, len(req.Messages)+1)
	msgs = append(msgs, &aisdk.Message{Role: aisdk.RoleSystem, Content: system})
	for _, m := range req.Messages {
		if m != nil {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
