// Package openaiclient adapts github.com/sashabaranov/go-openai to the
// aisdk.Provider interface so OpenAI and OpenAI-compatible servers can back the
// structured inference layer.
package openaiclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/loxresearch/genie/src/aisdk"
	"github.com/loxresearch/genie/src/orclient"
)

// ChatClient captures the subset of the go-openai client used by the adapter.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// Options configures the adapter.
type Options struct {
	Client ChatClient
	Logger *slog.Logger
}

// Client implements aisdk.Provider on top of go-openai.
type Client struct {
	chat   ChatClient
	logger *slog.Logger
}

var _ aisdk.Provider = (*Client)(nil)

// New builds a client from the provided options.
func New(opts Options) (*Client, error) {
	if opts.Client == nil {
		return nil, errors.New("openai client is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{chat: opts.Client, logger: logger.With("component", "openai_client")}, nil
}

// NewFromConfig constructs a client using the default go-openai HTTP client.
// baseURL may point at any OpenAI-compatible server.
func NewFromConfig(apiKey, baseURL string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return New(Options{Client: openai.NewClientWithConfig(cfg), Logger: logger})
}

// CreateChatCompletion translates the request, calls the API and maps the result back.
func (c *Client) CreateChatCompletion(ctx context.Context, req *aisdk.ChatCompletionRequest) (*aisdk.ChatCompletionResponse, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("messages are required")
	}
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m == nil {
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content, Name: m.Name})
	}

	request := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
		Stop:     req.Stop,
		User:     req.User,
	}
	if req.Temperature != nil {
		request.Temperature = float32(*req.Temperature)
		// go-openai omits a zero temperature, which lets the server default win.
		if request.Temperature == 0 {
			request.Temperature = math.SmallestNonzeroFloat32
		}
	}
	if req.TopP != nil {
		request.TopP = float32(*req.TopP)
	}
	if req.MaxTokens != nil {
		request.MaxTokens = *req.MaxTokens
	}
	if rf := req.ResponseFormat; rf != nil {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatType(rf.Type),
		}
		if rf.JSONSchema != nil {
			request.ResponseFormat.JSONSchema = &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        rf.JSONSchema.Name,
				Description: rf.JSONSchema.Description,
				Schema:      rf.JSONSchema.Schema,
				Strict:      rf.JSONSchema.Strict,
			}
		}
	}

	c.logger.Debug("sending chat completion request", "model", req.Model)
	response, err := c.chat.CreateChatCompletion(ctx, request)
	if err != nil {
		return nil, translateError(err)
	}
	if len(response.Choices) == 0 {
		return nil, orclient.ErrEmptyResponse
	}

	out := &aisdk.ChatCompletionResponse{
		ID:      response.ID,
		Object:  response.Object,
		Created: response.Created,
		Model:   response.Model,
		Usage: aisdk.Usage{
			PromptTokens:     response.Usage.PromptTokens,
			CompletionTokens: response.Usage.CompletionTokens,
			TotalTokens:      response.Usage.TotalTokens,
		},
	}
	for _, ch := range response.Choices {
		out.Choices = append(out.Choices, aisdk.Choice{
			Index:        ch.Index,
			Message:      aisdk.Message{Role: ch.Message.Role, Content: ch.Message.Content},
			FinishReason: string(ch.FinishReason),
		})
	}
	return out, nil
}

// ListModels lists the models served by the endpoint.
func (c *Client) ListModels(ctx context.Context) ([]*aisdk.ModelInfo, error) {
	list, err := c.chat.ListModels(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]*aisdk.ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		out = append(out, &aisdk.ModelInfo{
			ID:      m.ID,
			Name:    m.ID,
			Created: m.CreatedAt,
			OwnedBy: m.OwnedBy,
		})
	}
	return out, nil
}

// translateError maps go-openai errors onto orclient.APIError so callers can
// apply one retry and exit-code policy regardless of backend.
func translateError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		out := &orclient.APIError{
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Type:       apiErr.Type,
		}
		if apiErr.Code != nil {
			out.Code = fmt.Sprint(apiErr.Code)
		}
		if apiErr.Param != nil {
			out.Param = *apiErr.Param
		}
		return out
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &orclient.APIError{
			StatusCode: reqErr.HTTPStatusCode,
			Message:    reqErr.Error(),
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &orclient.TimeoutError{Operation: "openai chat completion", Cause: err}
	}
	return fmt.Errorf("openai chat completion: %w", err)
}
