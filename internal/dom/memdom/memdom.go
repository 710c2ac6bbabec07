// Package memdom is an in-memory implementation of the dom interfaces: a
// mutable element tree with selector queries and mutation watchers. It backs
// tests and static HTML captures (see htmldom).
package memdom

import (
	"strings"
	"sync"

	"github.com/threadly/threadly/internal/dom"
)

// Document is a mutable in-memory page.
type Document struct {
	mu       sync.Mutex
	root     *Node
	watchers map[int]*watcher
	nextID   int
}

// Node is one element of a Document. Build nodes with NewNode, attach them
// with Append, detach with Remove.
type Node struct {
	doc      *Document
	parent   *Node
	tag      string
	attrs    map[string]string
	text     string
	children []*Node
	detached bool
}

type watcher struct {
	doc    *Document
	id     int
	root   *Node
	fn     func(dom.MutationBatch)
	closed bool
}

// NewDocument creates an empty document with a synthetic root.
func NewDocument() *Document {
	d := &Document{watchers: make(map[int]*watcher)}
	d.root = &Node{doc: d, tag: "#document", attrs: map[string]string{}}
	return d
}

// Root returns the document root. Append top-level elements here.
func (d *Document) Root() *Node {
	return d.root
}

// NewNode creates a detached element.
func NewNode(tag string) *Node {
	return &Node{tag: strings.ToLower(tag), attrs: map[string]string{}}
}

// WithAttr sets an attribute and returns the node for chaining.
func (n *Node) WithAttr(name, value string) *Node {
	n.attrs[name] = value
	return n
}

// WithClass sets the class attribute and returns the node for chaining.
func (n *Node) WithClass(classes string) *Node {
	return n.WithAttr("class", classes)
}

// WithText sets the node's own text and returns the node for chaining.
func (n *Node) WithText(text string) *Node {
	n.text = text
	return n
}

// WithChild appends a detached child and returns the parent for chaining.
// Use Append for attached mutation with watcher notification.
func (n *Node) WithChild(child *Node) *Node {
	child.parent = n
	n.children = append(n.children, child)
	return n
}

// Append attaches child (and its subtree) under n and notifies watchers.
func (n *Node) Append(child *Node) {
	d := n.doc
	if d == nil {
		n.WithChild(child)
		return
	}

	d.mu.Lock()
	child.parent = n
	n.children = append(n.children, child)
	adopt(child, d)
	count := subtreeSize(child)
	fns := d.watchersFor(n)
	d.mu.Unlock()

	for _, fn := range fns {
		fn(dom.MutationBatch{Added: count})
	}
}

// Remove detaches n from its parent and notifies watchers. The node and its
// subtree report Attached() == false afterwards.
func (n *Node) Remove() {
	d := n.doc
	if d == nil || n.parent == nil {
		return
	}

	d.mu.Lock()
	parent := n.parent
	for i, c := range parent.children {
		if c == n {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}
	n.parent = nil
	markDetached(n)
	count := subtreeSize(n)
	fns := d.watchersFor(parent)
	d.mu.Unlock()

	for _, fn := range fns {
		fn(dom.MutationBatch{Removed: count})
	}
}

// SetText replaces the node's own text and notifies watchers with a
// non-structural batch (text-only mutations do not trigger re-extraction).
func (n *Node) SetText(text string) {
	d := n.doc
	if d == nil {
		n.text = text
		return
	}
	d.mu.Lock()
	n.text = text
	fns := d.watchersFor(n)
	d.mu.Unlock()

	for _, fn := range fns {
		fn(dom.MutationBatch{})
	}
}

func adopt(n *Node, d *Document) {
	n.doc = d
	n.detached = false
	for _, c := range n.children {
		adopt(c, d)
	}
}

func markDetached(n *Node) {
	n.detached = true
	for _, c := range n.children {
		markDetached(c)
	}
}

func subtreeSize(n *Node) int {
	count := 1
	for _, c := range n.children {
		count += subtreeSize(c)
	}
	return count
}

// watchersFor collects callbacks of watchers whose root is an ancestor of
// (or is) the mutated node. Callbacks run after the lock is released.
func (d *Document) watchersFor(at *Node) []func(dom.MutationBatch) {
	var fns []func(dom.MutationBatch)
	for _, w := range d.watchers {
		if w.closed {
			continue
		}
		for cur := at; cur != nil; cur = cur.parent {
			if cur == w.root {
				fns = append(fns, w.fn)
				break
			}
		}
	}
	return fns
}

// ─────────────────────────────────────────────────────────────────
// dom.Document
// ─────────────────────────────────────────────────────────────────

// Query returns nodes matching selector across the whole document, in
// document order.
func (d *Document) Query(selector string) []dom.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return wrap(queryIn(d.root, selector))
}

// Watch registers a mutation watcher rooted at root.
func (d *Document) Watch(root dom.Node, fn func(dom.MutationBatch)) (dom.Subscription, error) {
	node, ok := root.(*Node)
	if !ok || node.doc != d {
		return nil, errForeignNode
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	w := &watcher{doc: d, id: d.nextID, root: node, fn: fn}
	d.watchers[w.id] = w
	d.nextID++
	return w, nil
}

func (w *watcher) Close() {
	w.doc.mu.Lock()
	defer w.doc.mu.Unlock()
	w.closed = true
	delete(w.doc.watchers, w.id)
}

// ─────────────────────────────────────────────────────────────────
// dom.Node
// ─────────────────────────────────────────────────────────────────

// Text returns the node's subtree text, depth-first, space-joined, trimmed.
func (n *Node) Text() string {
	var parts []string
	collectText(n, &parts)
	return strings.TrimSpace(strings.Join(parts, " "))
}

func collectText(n *Node, parts *[]string) {
	if t := strings.TrimSpace(n.text); t != "" {
		*parts = append(*parts, t)
	}
	for _, c := range n.children {
		collectText(c, parts)
	}
}

// Attached reports whether the node is still reachable from its document.
func (n *Node) Attached() bool {
	return n.doc != nil && !n.detached
}

// Query returns nodes matching selector within n's subtree.
func (n *Node) Query(selector string) []dom.Node {
	if n.doc != nil {
		n.doc.mu.Lock()
		defer n.doc.mu.Unlock()
	}
	return wrap(queryIn(n, selector))
}

// Matches reports whether n itself matches selector.
func (n *Node) Matches(selector string) bool {
	for _, sel := range parseSelectorGroup(selector) {
		if sel.matches(n, nil) {
			return true
		}
	}
	return false
}

// queryIn matches selector against strict descendants of scope.
func queryIn(scope *Node, selector string) []*Node {
	group := parseSelectorGroup(selector)
	if len(group) == 0 {
		return nil
	}

	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, c := range n.children {
			for _, sel := range group {
				if sel.matches(c, scope) {
					out = append(out, c)
					break
				}
			}
			walk(c)
		}
	}
	walk(scope)
	return out
}

func wrap(nodes []*Node) []dom.Node {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]dom.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out
}
