// Package store defines the key-value persistence surface of the engine:
// one snapshot entry per (platform, path), one global favorites entry, one
// global collections entry.
package store

import (
	"context"
	"time"

	"github.com/threadly/threadly/internal/domain"
)

// Store is the asynchronous persistence interface. Implementations must
// treat absent keys as empty results, not errors.
type Store interface {
	LoadSnapshot(ctx context.Context, platform domain.Platform, path string) ([]*domain.Message, error)
	SaveSnapshot(ctx context.Context, platform domain.Platform, path string, messages []*domain.Message) error

	LoadFavorites(ctx context.Context) ([]*domain.FavoriteEntry, error)
	SaveFavorites(ctx context.Context, entries []*domain.FavoriteEntry) error

	LoadCollections(ctx context.Context) ([]*domain.Collection, error)
	SaveCollections(ctx context.Context, collections []*domain.Collection) error
}

// MessageRecord is the persisted form of one snapshot entry. Platform and
// path live in the storage key; live node references are never persisted.
type MessageRecord struct {
	Content      string      `json:"content"`
	Role         domain.Role `json:"role"`
	Timestamp    time.Time   `json:"timestamp"`
	Favorited    bool        `json:"favorited"`
	CollectionID string      `json:"collection_id,omitempty"`
}

// EncodeSnapshot converts messages to their persisted records.
func EncodeSnapshot(messages []*domain.Message) []MessageRecord {
	records := make([]MessageRecord, 0, len(messages))
	for _, m := range messages {
		records = append(records, MessageRecord{
			Content:      m.Content,
			Role:         m.Role,
			Timestamp:    m.CapturedAt,
			Favorited:    m.Favorited,
			CollectionID: m.CollectionID,
		})
	}
	return records
}

// DecodeSnapshot rebuilds messages from persisted records, re-attaching the
// (platform, path) provenance from the storage key.
func DecodeSnapshot(records []MessageRecord, platform domain.Platform, path string) []*domain.Message {
	messages := make([]*domain.Message, 0, len(records))
	for _, r := range records {
		messages = append(messages, &domain.Message{
			Role:         r.Role,
			Content:      r.Content,
			Platform:     platform,
			Path:         path,
			CapturedAt:   r.Timestamp,
			Favorited:    r.Favorited,
			CollectionID: r.CollectionID,
		})
	}
	return messages
}
