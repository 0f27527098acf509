package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/zatekoja/vaccinefinder/backend/internal/domain/providers"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryAdapter is an in-process CacheProvider bounded by entry count.
// It backs the geocode and translation caches when Redis is unavailable.
type MemoryAdapter struct {
	entries *lru.Cache[string, memoryEntry]
	now     func() time.Time
}

// NewMemoryAdapter creates a memory cache holding at most size entries
func NewMemoryAdapter(size int) (*MemoryAdapter, error) {
	entries, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	return &MemoryAdapter{entries: entries, now: time.Now}, nil
}

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	entry, ok := a.entries.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", providers.ErrCacheMiss, key)
	}
	if !entry.expiresAt.IsZero() && !a.now().Before(entry.expiresAt) {
		a.entries.Remove(key)
		return nil, fmt.Errorf("%w: %s", providers.ErrCacheMiss, key)
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Set stores a value in cache. A non-positive expiration keeps the entry
// until it is evicted.
func (a *MemoryAdapter) Set(_ context.Context, key string, value []byte, expirationSeconds int) error {
	entry := memoryEntry{value: make([]byte, len(value))}
	copy(entry.value, value)
	if expirationSeconds > 0 {
		entry.expiresAt = a.now().Add(time.Duration(expirationSeconds) * time.Second)
	}
	a.entries.Add(key, entry)
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(_ context.Context, key string) error {
	a.entries.Remove(key)
	return nil
}

// Exists checks if a live key exists in cache
func (a *MemoryAdapter) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := a.Get(ctx, key); err != nil {
		return false, nil
	}
	return true, nil
}

// Len returns the number of stored entries, including expired ones not yet evicted
func (a *MemoryAdapter) Len() int {
	return a.entries.Len()
}
