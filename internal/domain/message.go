package domain

import (
	"strings"
	"time"
)

// IdentityPrefixLen is the number of leading characters of message content
// used to build the reconciliation identity key. Two messages with the same
// role and the same prefix are treated as the same message across extraction
// passes, even when captured at different positions.
const IdentityPrefixLen = 100

// Role distinguishes who authored a message turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message represents one captured conversational turn.
//
// A Message is NOT tied to any particular page snapshot. The live node
// reference is transient: the DOM owns it, it is never persisted, and it may
// go stale the moment the page mutates.
type Message struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// Role is the author of the turn.
	Role Role `json:"role"`

	// Content is the trimmed plain-text content of the turn.
	Content string `json:"content"`

	// ─────────────────────────────
	// Provenance
	// ─────────────────────────────

	// Platform is the site the message was captured from.
	Platform Platform `json:"platform"`

	// Path is the URL path of the conversation the message belongs to.
	Path string `json:"path"`

	// CapturedAt is when the message was first extracted.
	CapturedAt time.Time `json:"captured_at"`

	// ─────────────────────────────
	// User metadata (survives re-extraction)
	// ─────────────────────────────

	// Favorited marks the message as starred by the user.
	Favorited bool `json:"favorited"`

	// CollectionID references a Collection, empty when unassigned.
	// Existence of the collection is not validated here; the panel only
	// offers identifiers it created.
	CollectionID string `json:"collection_id,omitempty"`

	// ─────────────────────────────
	// Transient
	// ─────────────────────────────

	// Node is the live source node reference, valid only while the page is
	// unchanged. Consumers must check Node.Attached() before use.
	Node NodeRef `json:"-"`
}

// NodeRef is the minimal view of a live document node a Message retains,
// kept for scroll-to-message behavior in the panel.
type NodeRef interface {
	Attached() bool
}

// IdentityKey returns the (role, content-prefix) key used to match a message
// across extraction passes and to deduplicate repeated captures.
func (m *Message) IdentityKey() string {
	return identityKey(m.Role, m.Content, IdentityPrefixLen)
}

// Fingerprint returns the strict (role, full-content) key used by the global
// favorites index.
func (m *Message) Fingerprint() string {
	return string(m.Role) + "\x00" + m.Content
}

func identityKey(role Role, content string, prefixLen int) string {
	runes := []rune(content)
	if len(runes) > prefixLen {
		runes = runes[:prefixLen]
	}
	return string(role) + "\x00" + string(runes)
}

// IdentityKeyFor builds an identity key with an explicit prefix length.
// Used by the reconciler so the prefix length stays configurable.
func IdentityKeyFor(role Role, content string, prefixLen int) string {
	if prefixLen <= 0 {
		prefixLen = IdentityPrefixLen
	}
	return identityKey(role, content, prefixLen)
}

// Matches reports whether the message text contains the query,
// case-insensitively. An empty query matches everything.
func (m *Message) Matches(query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(m.Content), strings.ToLower(query))
}
