package orclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/loxresearch/genie/src/aisdk"
)

// ModelsResponse represents the response from the /models endpoint
type ModelsResponse struct {
	Data []*aisdk.ModelInfo `json:"data"`
}

// ListModels returns all available models (with caching)
func (c *Client) ListModels(ctx context.Context) ([]*aisdk.ModelInfo, error) {
	return c.modelCache.GetModelList(ctx)
}

// GetModel returns a single model by id.
func (c *Client) GetModel(ctx context.Context, id string) (*aisdk.ModelInfo, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range models {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, fmt.Errorf("model %s not found", id)
}

// listModelsUncached returns all available models without caching
func (c *Client) listModelsUncached(ctx context.Context) ([]*aisdk.ModelInfo, error) {
	resp, err := c.doRequestWithRetry(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var modelsResp ModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&modelsResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return modelsResp.Data, nil
}
