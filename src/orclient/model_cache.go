package orclient

import (
	"context"
	"sync"
	"time"

	"github.com/loxresearch/genie/src/aisdk"
)

// ModelCache caches the model list for a fixed TTL.
type ModelCache struct {
	listCache *cachedModelList
	mu        sync.RWMutex
	ttl       time.Duration
	client    *Client
}

type cachedModelList struct {
	models    []*aisdk.ModelInfo
	fetchedAt time.Time
}

// NewModelCache creates a new model cache
func NewModelCache(client *Client, ttl time.Duration) *ModelCache {
	return &ModelCache{
		ttl:    ttl,
		client: client,
	}
}

// GetModelList returns the cached list or fetches a fresh one.
func (mc *ModelCache) GetModelList(ctx context.Context) ([]*aisdk.ModelInfo, error) {
	mc.mu.RLock()
	cached := mc.listCache
	mc.mu.RUnlock()

	if cached != nil && time.Since(cached.fetchedAt) < mc.ttl {
		return cached.models, nil
	}

	models, err := mc.client.listModelsUncached(ctx)
	if err != nil {
		return nil, err
	}

	mc.mu.Lock()
	mc.listCache = &cachedModelList{models: models, fetchedAt: time.Now()}
	mc.mu.Unlock()

	return models, nil
}

// Clear drops the cached list.
func (mc *ModelCache) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.listCache = nil
}
