// Package cache remembers which source media URLs already have a published
// Contentful asset, so a re-run links the existing asset instead of
// uploading the file again.
package cache

import (
	"context"
	"sync"
)

// AssetCache maps a source media URL to a Contentful asset id.
type AssetCache interface {
	Get(ctx context.Context, url string) (assetID string, ok bool, err error)
	Set(ctx context.Context, url, assetID string) error
}

// Memory is an in-process AssetCache. The zero value is ready to use.
type Memory struct {
	mu     sync.Mutex
	assets map[string]string
}

func (m *Memory) Get(_ context.Context, url string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.assets[url]
	return id, ok, nil
}

func (m *Memory) Set(_ context.Context, url, assetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.assets == nil {
		m.assets = make(map[string]string)
	}
	m.assets[url] = assetID
	return nil
}
