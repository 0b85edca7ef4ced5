package orclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/loxresearch/genie/src/aisdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		RetryCount: 3,
		RetryDelay: time.Millisecond,
	})
}

func TestCreateChatCompletion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req aisdk.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "qwen2.5-1.5b-instruct", req.Model)
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_schema", req.ResponseFormat.Type)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(aisdk.ChatCompletionResponse{
			ID:      "cmpl-1",
			Choices: []aisdk.Choice{{Message: aisdk.Message{Role: "assistant", Content: `{"action":"direct_answer","response":"hi"}`}}},
			Usage:   aisdk.Usage{TotalTokens: 12},
		})
	})

	resp, err := client.CreateChatCompletion(context.Background(), &aisdk.ChatCompletionRequest{
		Model:    "qwen2.5-1.5b-instruct",
		Messages: []*aisdk.Message{{Role: aisdk.RoleUser, Content: "Who are you?"}},
		ResponseFormat: &aisdk.ResponseFormat{
			Type:       "json_schema",
			JSONSchema: &aisdk.JSONSchemaFormat{Name: "classification", Schema: json.RawMessage(`{"type":"object"}`)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"action":"direct_answer","response":"hi"}`, resp.Content())
	assert.Equal(t, 12, resp.Usage.TotalTokens)
}

func TestCreateChatCompletionRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(aisdk.ChatCompletionResponse{
			Choices: []aisdk.Choice{{Message: aisdk.Message{Content: "ok"}}},
		})
	})

	resp, err := client.CreateChatCompletion(context.Background(), &aisdk.ChatCompletionRequest{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content())
	assert.Equal(t, int32(3), calls.Load())
}

func TestCreateChatCompletionClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("X-Request-ID", "req-9")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"No auth credentials found","code":401}}`))
	})

	_, err := client.CreateChatCompletion(context.Background(), &aisdk.ChatCompletionRequest{Model: "m"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "401", apiErr.Code)
	assert.Equal(t, "req-9", apiErr.RequestID)
	assert.True(t, apiErr.IsAuthError())
	assert.Equal(t, int32(1), calls.Load())
}

func TestCreateChatCompletionEmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"x","choices":[]}`))
	})

	_, err := client.CreateChatCompletion(context.Background(), &aisdk.ChatCompletionRequest{Model: "m"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestCreateChatCompletionHonorsDeadline(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.CreateChatCompletion(ctx, &aisdk.ChatCompletionRequest{Model: "m"})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestListModelsIsCached(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		calls.Add(1)
		w.Write([]byte(`{"data":[{"id":"qwen/qwen-2.5-7b-instruct","name":"Qwen 2.5 7B","context_length":32768}]}`))
	})

	models, err := client.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, 32768, models[0].ContextLength)

	m, err := client.GetModel(context.Background(), "qwen/qwen-2.5-7b-instruct")
	require.NoError(t, err)
	assert.Equal(t, "Qwen 2.5 7B", m.Name)
	assert.Equal(t, int32(1), calls.Load())

	_, err = client.GetModel(context.Background(), "missing")
	assert.Error(t, err)
}
