// Package roddom adapts a live browser page (go-rod over CDP) to the dom
// interfaces. Mutation batches are approximated by polling a subtree element
// count; CDP round-trips make a true MutationObserver bridge more fragile
// than the engine needs.
package roddom

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"

	"github.com/threadly/threadly/internal/dom"
)

// DefaultPollInterval is how often a watch samples the subtree.
const DefaultPollInterval = 250 * time.Millisecond

// Document wraps one attached browser page.
type Document struct {
	page         *rod.Page
	pollInterval time.Duration
}

// Node wraps one live element handle.
type Node struct {
	el *rod.Element
}

// Attach wraps an already-open rod page.
func Attach(page *rod.Page) *Document {
	return &Document{page: page, pollInterval: DefaultPollInterval}
}

// WithPollInterval overrides the watch sampling interval.
func (d *Document) WithPollInterval(interval time.Duration) *Document {
	if interval > 0 {
		d.pollInterval = interval
	}
	return d
}

// Query returns live element handles matching selector. Lookup misses and
// page errors both yield an empty result; the monitor's retry policy covers
// pages that are still loading.
func (d *Document) Query(selector string) []dom.Node {
	els, err := d.page.Elements(selector)
	if err != nil {
		return nil
	}
	return wrapElements(els)
}

// Watch polls root's subtree element count and reports count deltas as
// structural mutation batches.
func (d *Document) Watch(root dom.Node, fn func(dom.MutationBatch)) (dom.Subscription, error) {
	node, ok := root.(*Node)
	if !ok {
		return nil, errForeignNode
	}

	s := &subscription{stopCh: make(chan struct{})}
	go s.loop(node, d.pollInterval, fn)
	return s, nil
}

type subscription struct {
	mu     sync.Mutex
	closed bool
	stopCh chan struct{}
}

func (s *subscription) loop(root *Node, interval time.Duration, fn func(dom.MutationBatch)) {
	last, _ := root.subtreeCount()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			count, ok := root.subtreeCount()
			if !ok || count == last {
				continue
			}
			batch := dom.MutationBatch{}
			if count > last {
				batch.Added = count - last
			} else {
				batch.Removed = last - count
			}
			last = count

			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			fn(batch)
		case <-s.stopCh:
			return
		}
	}
}

func (s *subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.stopCh)
}

// Text returns the element's rendered text, trimmed.
func (n *Node) Text() string {
	text, err := n.el.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// Attached asks the page whether the element is still in the document.
func (n *Node) Attached() bool {
	res, err := n.el.Eval(`() => document.contains(this)`)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

// Query returns matching descendants of this element.
func (n *Node) Query(selector string) []dom.Node {
	els, err := n.el.Elements(selector)
	if err != nil {
		return nil
	}
	return wrapElements(els)
}

// Matches delegates to the browser's own selector matching.
func (n *Node) Matches(selector string) bool {
	res, err := n.el.Eval(`(s) => this.matches(s)`, selector)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

func (n *Node) subtreeCount() (int, bool) {
	res, err := n.el.Eval(`() => this.querySelectorAll('*').length`)
	if err != nil {
		return 0, false
	}
	return res.Value.Int(), true
}

func wrapElements(els rod.Elements) []dom.Node {
	if len(els) == 0 {
		return nil
	}
	out := make([]dom.Node, len(els))
	for i, el := range els {
		out[i] = &Node{el: el}
	}
	return out
}

// PageLocation exposes the page URL as a dom.Location, sampled on demand so
// single-page-app routing is visible to the navigation watcher.
type PageLocation struct {
	page *rod.Page
}

// NewPageLocation wraps a page.
func NewPageLocation(page *rod.Page) *PageLocation {
	return &PageLocation{page: page}
}

// Host returns the current page hostname, or "" when the page is gone.
func (l *PageLocation) Host() string {
	u := l.current()
	if u == nil {
		return ""
	}
	return u.Hostname()
}

// Path returns the current page path, or "" when the page is gone.
func (l *PageLocation) Path() string {
	u := l.current()
	if u == nil {
		return ""
	}
	return u.Path
}

func (l *PageLocation) current() *url.URL {
	info, err := l.page.Info()
	if err != nil {
		return nil
	}
	u, err := url.Parse(info.URL)
	if err != nil {
		return nil
	}
	return u
}
