package cache

import (
	"context"
	"path"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/zatekoja/storeguard/internal/domain/providers"
)

// DefaultMemoryEntries bounds the in-process cache
const DefaultMemoryEntries = 4096

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryAdapter is a process-local CacheProvider for the memory storage
// driver. Entries expire lazily on read and the least recently used entry
// is evicted once the cache is full.
type MemoryAdapter struct {
	mu      sync.Mutex
	entries *lru.Cache[string, memoryEntry]
	now     func() time.Time
}

// NewMemoryAdapter creates an LRU-backed cache holding up to size entries
func NewMemoryAdapter(size int) (providers.CacheProvider, error) {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	entries, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, err
	}
	return &MemoryAdapter{entries: entries, now: time.Now}, nil
}

// Get retrieves a live value
func (a *MemoryAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, ok := a.entries.Get(key)
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	if a.expired(entry) {
		a.entries.Remove(key)
		return nil, providers.ErrCacheMiss
	}
	return append([]byte(nil), entry.value...), nil
}

// Set stores a copy of value. A non-positive expiration keeps it until evicted.
func (a *MemoryAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if expirationSeconds > 0 {
		entry.expiresAt = a.now().Add(time.Duration(expirationSeconds) * time.Second)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries.Add(key, entry)
	return nil
}

// Delete removes a value
func (a *MemoryAdapter) Delete(ctx context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries.Remove(key)
	return nil
}

// DeletePattern removes every key matching a glob pattern
func (a *MemoryAdapter) DeletePattern(ctx context.Context, pattern string) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, key := range a.entries.Keys() {
		if ok, _ := path.Match(pattern, key); ok {
			a.entries.Remove(key)
		}
	}
	return nil
}

// Exists reports whether a live value is stored
func (a *MemoryAdapter) Exists(ctx context.Context, key string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, ok := a.entries.Peek(key)
	if !ok {
		return false, nil
	}
	if a.expired(entry) {
		a.entries.Remove(key)
		return false, nil
	}
	return true, nil
}

func (a *MemoryAdapter) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !a.now().Before(e.expiresAt)
}
