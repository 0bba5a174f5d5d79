package twitch

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// TokenCache holds the process-wide app access token. The value is overwritten
// on refresh, never versioned; concurrent refreshes are coalesced so a burst
// of 401s triggers a single client-credentials call.
type TokenCache struct {
	mu    sync.RWMutex
	token string
	group singleflight.Group
}

// NewTokenCache creates an empty cache. The first AsApp call acquires a token.
func NewTokenCache() *TokenCache {
	return &TokenCache{}
}

// Get returns the cached token, or "" if none has been acquired yet.
func (c *TokenCache) Get() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Set overwrites the cached token. Last writer wins; all fresh tokens are
// interchangeable.
func (c *TokenCache) Set(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Refresh fetches a new token via fetch, stores it, and returns it. Concurrent
// callers share a single in-flight fetch and its result.
func (c *TokenCache) Refresh(ctx context.Context, fetch func(ctx context.Context) (string, error)) (string, error) {
	result, err, _ := c.group.Do("app-token", func() (any, error) {
		token, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(token)
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}
