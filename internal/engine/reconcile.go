// Package engine owns the per-conversation snapshot: it reconciles fresh
// extractions against persisted state and exposes the panel-facing API.
package engine

import "github.com/threadly/threadly/internal/domain"

// Reconcile merges a freshly extracted sequence against the previous
// snapshot. The result replaces the old snapshot in full: order and
// membership come from the fresh pass, favorite/collection metadata and the
// original capture time are carried forward by identity key.
//
// Chat UIs render the same message through overlapping subtrees during
// transition animations, so the fresh sequence is deduplicated first; the
// earliest occurrence wins.
func Reconcile(previous, fresh []*domain.Message, prefixLen int) []*domain.Message {
	prevByKey := make(map[string]*domain.Message, len(previous))
	for _, msg := range previous {
		key := domain.IdentityKeyFor(msg.Role, msg.Content, prefixLen)
		if _, ok := prevByKey[key]; !ok {
			prevByKey[key] = msg
		}
	}

	seen := make(map[string]bool, len(fresh))
	merged := make([]*domain.Message, 0, len(fresh))
	for _, msg := range fresh {
		key := domain.IdentityKeyFor(msg.Role, msg.Content, prefixLen)
		if seen[key] {
			continue
		}
		seen[key] = true

		if prev, ok := prevByKey[key]; ok {
			msg.Favorited = prev.Favorited
			msg.CollectionID = prev.CollectionID
			if !prev.CapturedAt.IsZero() {
				msg.CapturedAt = prev.CapturedAt
			}
		}
		merged = append(merged, msg)
	}
	return merged
}
