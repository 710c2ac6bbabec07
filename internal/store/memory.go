package store

import (
	"context"
	"sync"

	"github.com/threadly/threadly/internal/domain"
)

// MemoryStore is an in-process Store. It backs tests and sessions running
// without Redis; state lives for the process only.
type MemoryStore struct {
	mu          sync.RWMutex
	snapshots   map[string][]MessageRecord
	favorites   []*domain.FavoriteEntry
	collections []*domain.Collection
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string][]MessageRecord)}
}

func snapshotKey(platform domain.Platform, path string) string {
	return string(platform) + ":" + path
}

// LoadSnapshot returns the stored conversation, or nil when absent.
func (s *MemoryStore) LoadSnapshot(_ context.Context, platform domain.Platform, path string) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, ok := s.snapshots[snapshotKey(platform, path)]
	if !ok {
		return nil, nil
	}
	return DecodeSnapshot(records, platform, path), nil
}

// SaveSnapshot replaces the stored conversation wholesale.
func (s *MemoryStore) SaveSnapshot(_ context.Context, platform domain.Platform, path string, messages []*domain.Message) error {
	records := EncodeSnapshot(messages)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshotKey(platform, path)] = records
	return nil
}

// LoadFavorites returns the global favorites entry.
func (s *MemoryStore) LoadFavorites(_ context.Context) ([]*domain.FavoriteEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.FavoriteEntry, len(s.favorites))
	copy(out, s.favorites)
	return out, nil
}

// SaveFavorites replaces the global favorites entry.
func (s *MemoryStore) SaveFavorites(_ context.Context, entries []*domain.FavoriteEntry) error {
	cp := make([]*domain.FavoriteEntry, len(entries))
	copy(cp, entries)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.favorites = cp
	return nil
}

// LoadCollections returns the global collections entry.
func (s *MemoryStore) LoadCollections(_ context.Context) ([]*domain.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Collection, len(s.collections))
	copy(out, s.collections)
	return out, nil
}

// SaveCollections replaces the global collections entry.
func (s *MemoryStore) SaveCollections(_ context.Context, collections []*domain.Collection) error {
	cp := make([]*domain.Collection, len(collections))
	copy(cp, collections)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections = cp
	return nil
}
