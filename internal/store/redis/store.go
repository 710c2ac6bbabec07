// Package redis persists snapshots, favorites and collections as JSON
// values in Redis. Conversations are never expired by the store itself;
// pruning is an external concern.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/threadly/threadly/internal/domain"
	"github.com/threadly/threadly/internal/store"
)

// Store handles Redis operations for the engine's persisted state.
type Store struct {
	client *goredis.Client
}

// NewStore creates a Redis-backed store.
func NewStore(client *goredis.Client) *Store {
	return &Store{client: client}
}

// LoadSnapshot retrieves one conversation. Absence yields nil, not an error.
func (s *Store) LoadSnapshot(ctx context.Context, platform domain.Platform, path string) ([]*domain.Message, error) {
	data, err := s.client.Get(ctx, SnapshotKey(string(platform), path)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var records []store.MessageRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return store.DecodeSnapshot(records, platform, path), nil
}

// SaveSnapshot replaces one conversation wholesale and tracks its key in
// the all-snapshots set.
func (s *Store) SaveSnapshot(ctx context.Context, platform domain.Platform, path string, messages []*domain.Message) error {
	data, err := json.Marshal(store.EncodeSnapshot(messages))
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := SnapshotKey(string(platform), path)
	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, KeyAllSnapshots, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadFavorites retrieves the global favorites index entry.
func (s *Store) LoadFavorites(ctx context.Context) ([]*domain.FavoriteEntry, error) {
	var entries []*domain.FavoriteEntry
	if err := s.getJSON(ctx, KeyFavorites, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SaveFavorites replaces the global favorites index entry.
func (s *Store) SaveFavorites(ctx context.Context, entries []*domain.FavoriteEntry) error {
	return s.setJSON(ctx, KeyFavorites, entries)
}

// LoadCollections retrieves the global collections entry.
func (s *Store) LoadCollections(ctx context.Context) ([]*domain.Collection, error) {
	var collections []*domain.Collection
	if err := s.getJSON(ctx, KeyCollections, &collections); err != nil {
		return nil, err
	}
	return collections, nil
}

// SaveCollections replaces the global collections entry.
func (s *Store) SaveCollections(ctx context.Context, collections []*domain.Collection) error {
	return s.setJSON(ctx, KeyCollections, collections)
}

func (s *Store) getJSON(ctx context.Context, key string, out interface{}) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

func (s *Store) setJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
