package domain

import "time"

// Collection is a user-named, cross-conversation grouping tag.
// Collections are created by user action and never auto-deleted.
type Collection struct {
	// ID is the opaque unique identifier assigned at creation time.
	ID string `json:"id"`

	// Name is the user-supplied display name. Never empty.
	Name string `json:"name"`

	// Platform records where the collection was created. Informational
	// only: collections are globally visible.
	Platform Platform `json:"platform"`

	// CreatedAt is the creation timestamp.
	CreatedAt time.Time `json:"created_at"`
}

// FavoriteEntry is one record of the global favorites index: a full content
// copy of a starred message, keyed by (role, content) so favorite status
// survives re-extraction under a different position.
type FavoriteEntry struct {
	Role     Role      `json:"role"`
	Content  string    `json:"content"`
	Platform Platform  `json:"platform"`
	Path     string    `json:"path"`
	SavedAt  time.Time `json:"saved_at"`
}

// Fingerprint returns the strict (role, full-content) index key.
func (e *FavoriteEntry) Fingerprint() string {
	return string(e.Role) + "\x00" + e.Content
}
