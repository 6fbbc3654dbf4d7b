package storage

import (
	"context"

	"github.com/patrickmn/go-cache"
)

// Memory is a process-local Store. Entries never expire.
type Memory struct {
	cache *cache.Cache
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{cache: cache.New(cache.NoExpiration, 0)}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, keys []string) (map[string]any, error) {
	if keys == nil {
		all := m.cache.Items()
		out := make(map[string]any, len(all))
		for k, item := range all {
			v, err := decode(item.Object.([]byte))
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	}

	out := make(map[string]any, len(keys))
	for _, k := range keys {
		raw, ok := m.cache.Get(k)
		if !ok {
			continue
		}
		v, err := decode(raw.([]byte))
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// Set implements Store. Nothing is written if any value fails to encode.
func (m *Memory) Set(_ context.Context, items map[string]any) error {
	encoded := make(map[string][]byte, len(items))
	for k, v := range items {
		raw, err := encode(v)
		if err != nil {
			return err
		}
		encoded[k] = raw
	}
	for k, raw := range encoded {
		m.cache.Set(k, raw, cache.NoExpiration)
	}
	return nil
}

// Remove implements Store.
func (m *Memory) Remove(_ context.Context, keys []string) error {
	for _, k := range keys {
		m.cache.Delete(k)
	}
	return nil
}

// Clear implements Store.
func (m *Memory) Clear(context.Context) error {
	m.cache.Flush()
	return nil
}

// Close implements Store.
func (m *Memory) Close() error {
	return nil
}
