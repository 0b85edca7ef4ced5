package aisdk

import (
	"context"
)

// ModelClient sends chat completion requests to a model endpoint.
type ModelClient interface {
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)
}

// ModelLister lists the models an endpoint serves.
type ModelLister interface {
	ListModels(ctx context.Context) ([]*ModelInfo, error)
}

// Provider is a model endpoint that can both list and serve models.
type Provider interface {
	ModelClient
	ModelLister
}
