package memdom

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

var errForeignNode = errors.New("memdom: watch root belongs to another document")

func (n *Node) hasClass(class string) bool {
	for _, c := range strings.Fields(n.attrs["class"]) {
		if c == class {
			return true
		}
	}
	return false
}

// Location is a mutable page address for tests and static backends.
// Implements dom.Location.
type Location struct {
	mu   sync.Mutex
	host string
	path string
}

// NewLocation creates a location at host/path.
func NewLocation(host, path string) *Location {
	return &Location{host: host, path: path}
}

// LocationFromURL parses a full URL into a location.
func LocationFromURL(rawURL string) (*Location, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, errors.New("page url must not be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url: %w", err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("page url %q has no hostname", rawURL)
	}
	return NewLocation(u.Hostname(), u.Path), nil
}

// Host returns the current hostname.
func (l *Location) Host() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.host
}

// Path returns the current URL path.
func (l *Location) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// Navigate changes the address in place, simulating single-page-app routing.
func (l *Location) Navigate(host, path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.host = host
	l.path = path
}
