// Package dom defines the read-only document interface the engine consumes.
// The engine never mutates a document; it queries nodes, reads text, and
// subscribes to structural change batches. Backends: memdom (in-memory),
// htmldom (parsed static HTML), roddom (live browser page over CDP).
package dom

// Node is one element of a document.
type Node interface {
	// Text returns the trimmed plain-text content of the node's subtree.
	Text() string

	// Attached reports whether the node is still part of its document.
	// References go stale when the page mutates; consumers must check
	// before use.
	Attached() bool

	// Query returns the nodes matching selector within this node's
	// subtree, in document order.
	Query(selector string) []Node

	// Matches reports whether the node itself matches selector.
	Matches(selector string) bool
}

// Document is the root query surface of one page.
type Document interface {
	// Query returns the nodes matching selector, in document order.
	Query(selector string) []Node

	// Watch subscribes to structural mutations of root's subtree. Each
	// batch reports how many nodes were added and removed since the last
	// notification. Closing the subscription halts delivery; a pending
	// notification must not fire after Close.
	Watch(root Node, fn func(MutationBatch)) (Subscription, error)
}

// MutationBatch summarizes one burst of subtree mutations.
type MutationBatch struct {
	Added   int
	Removed int
}

// Structural reports whether the batch contains at least one node addition
// or removal. Only structural batches trigger re-extraction.
func (b MutationBatch) Structural() bool {
	return b.Added > 0 || b.Removed > 0
}

// Subscription is a handle on an active mutation watch.
type Subscription interface {
	Close()
}

// Location exposes the page address to the engine. Implementations poll or
// observe it to detect single-page-app navigation.
type Location interface {
	Host() string
	Path() string
}
