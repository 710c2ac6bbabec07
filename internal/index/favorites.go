// Package index holds the process-wide favorites and collections state,
// shared across all conversation engines in the session.
package index

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/threadly/threadly/internal/domain"
)

// ErrEmptyCollectionName rejects collection names that are empty or
// whitespace-only.
var ErrEmptyCollectionName = errors.New("collection name must not be empty")

// FavoritesIndex is the sole source of truth for "is this ever-favorited"
// across site visits. Entries are full content copies keyed by the strict
// (role, content) fingerprint, never by snapshot position.
//
// The mutex guards every read-modify-write sequence: index updates triggered
// around awaited persistence must not interleave.
type FavoritesIndex struct {
	mu          sync.Mutex
	favorites   map[string]*domain.FavoriteEntry // fingerprint -> entry
	collections map[string]*domain.Collection    // id -> collection
}

// NewFavoritesIndex creates an empty index.
func NewFavoritesIndex() *FavoritesIndex {
	return &FavoritesIndex{
		favorites:   make(map[string]*domain.FavoriteEntry),
		collections: make(map[string]*domain.Collection),
	}
}

// Hydrate replaces the index content from persisted state, at startup.
func (idx *FavoritesIndex) Hydrate(favorites []*domain.FavoriteEntry, collections []*domain.Collection) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.favorites = make(map[string]*domain.FavoriteEntry, len(favorites))
	for _, e := range favorites {
		idx.favorites[e.Fingerprint()] = e
	}
	idx.collections = make(map[string]*domain.Collection, len(collections))
	for _, c := range collections {
		idx.collections[c.ID] = c
	}
}

// Has reports whether a message is favorited anywhere in the session.
func (idx *FavoritesIndex) Has(fingerprint string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	_, ok := idx.favorites[fingerprint]
	return ok
}

// Put upserts a favorite entry for a message.
func (idx *FavoritesIndex) Put(msg *domain.Message) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.favorites[msg.Fingerprint()] = &domain.FavoriteEntry{
		Role:     msg.Role,
		Content:  msg.Content,
		Platform: msg.Platform,
		Path:     msg.Path,
		SavedAt:  time.Now(),
	}
}

// Delete removes a favorite entry by fingerprint.
func (idx *FavoritesIndex) Delete(fingerprint string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.favorites, fingerprint)
}

// ReplaceConversation recomputes this conversation's contribution after a
// reconciliation pass: favorited messages are unioned in, entries belonging
// to this exact (platform, path) that are no longer favorited are dropped,
// and entries from other conversations are left untouched.
func (idx *FavoritesIndex) ReplaceConversation(platform domain.Platform, path string, favorited []*domain.Message) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	keep := make(map[string]bool, len(favorited))
	now := time.Now()
	for _, msg := range favorited {
		fp := msg.Fingerprint()
		keep[fp] = true
		if _, ok := idx.favorites[fp]; !ok {
			idx.favorites[fp] = &domain.FavoriteEntry{
				Role:     msg.Role,
				Content:  msg.Content,
				Platform: msg.Platform,
				Path:     msg.Path,
				SavedAt:  now,
			}
		}
	}

	for fp, entry := range idx.favorites {
		if entry.Platform == platform && entry.Path == path && !keep[fp] {
			delete(idx.favorites, fp)
		}
	}
}

// List returns all favorite entries across every platform and conversation,
// optionally filtered by a case-insensitive substring query, newest first.
func (idx *FavoritesIndex) List(query string) []*domain.FavoriteEntry {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]*domain.FavoriteEntry, 0, len(idx.favorites))
	for _, e := range idx.favorites {
		if query != "" && !strings.Contains(strings.ToLower(e.Content), query) {
			continue
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].SavedAt.Equal(out[j].SavedAt) {
			return out[i].SavedAt.After(out[j].SavedAt)
		}
		return out[i].Content < out[j].Content
	})
	return out
}

// Favorites returns every entry, for persistence.
func (idx *FavoritesIndex) Favorites() []*domain.FavoriteEntry {
	return idx.List("")
}

// Count returns the number of favorite entries.
func (idx *FavoritesIndex) Count() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return len(idx.favorites)
}

// ─────────────────────────────────────────────────────────────────
// Collections
// ─────────────────────────────────────────────────────────────────

// CreateCollection validates the name, assigns a fresh identifier and
// appends to the global collection list.
func (idx *FavoritesIndex) CreateCollection(name string, platform domain.Platform) (*domain.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyCollectionName
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	c := &domain.Collection{
		ID:        uuid.NewString(),
		Name:      name,
		Platform:  platform,
		CreatedAt: time.Now(),
	}
	idx.collections[c.ID] = c
	return c, nil
}

// Collections returns all collections, oldest first.
func (idx *FavoritesIndex) Collections() []*domain.Collection {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	out := make([]*domain.Collection, 0, len(idx.collections))
	for _, c := range idx.collections {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
