package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/threadly/threadly/internal/dom"
	"github.com/threadly/threadly/internal/domain"
	"github.com/threadly/threadly/internal/extract"
	"github.com/threadly/threadly/internal/index"
	"github.com/threadly/threadly/internal/logger"
	"github.com/threadly/threadly/internal/store"
)

// ErrMessageNotFound is returned when a panel operation references a
// message absent from the current snapshot.
var ErrMessageNotFound = errors.New("message not found in current snapshot")

// Filter narrows the panel's message view. Zero value matches everything.
type Filter struct {
	Role          domain.Role
	Query         string
	CollectionID  string
	FavoritesOnly bool
}

// Config wires one engine instance.
type Config struct {
	Platform  domain.Platform
	Path      string
	Rule      domain.PlatformRule
	Doc       dom.Document
	Extractor *extract.Extractor
	Favorites *index.FavoritesIndex
	Writer    *store.Writer
	Logger    logger.Logger

	// PrefixLen overrides the identity-key prefix length. Zero keeps the
	// default.
	PrefixLen int
}

// Engine holds all state for one (platform, path) conversation: the current
// snapshot, the update callbacks, nothing global. Constructed per page
// load or navigation and torn down on the next one.
type Engine struct {
	platform  domain.Platform
	path      string
	rule      domain.PlatformRule
	doc       dom.Document
	extractor *extract.Extractor
	favorites *index.FavoritesIndex
	writer    *store.Writer
	logger    logger.Logger
	prefixLen int

	mu        sync.Mutex
	snapshot  []*domain.Message
	updateFns []func([]*domain.Message)
}

// New creates an engine instance.
func New(cfg Config) *Engine {
	prefixLen := cfg.PrefixLen
	if prefixLen <= 0 {
		prefixLen = domain.IdentityPrefixLen
	}
	return &Engine{
		platform:  cfg.Platform,
		path:      cfg.Path,
		rule:      cfg.Rule,
		doc:       cfg.Doc,
		extractor: cfg.Extractor,
		favorites: cfg.Favorites,
		writer:    cfg.Writer,
		logger:    cfg.Logger,
		prefixLen: prefixLen,
	}
}

// Bootstrap seeds the snapshot from persisted state so user metadata
// survives restarts. The favorites index stays authoritative: a persisted
// message whose fingerprint is indexed comes back favorited.
func (e *Engine) Bootstrap(ctx context.Context, st store.Store) error {
	messages, err := st.LoadSnapshot(ctx, e.platform, e.path)
	if err != nil {
		return err
	}
	for _, msg := range messages {
		if !msg.Favorited && e.favorites.Has(msg.Fingerprint()) {
			msg.Favorited = true
		}
	}

	e.mu.Lock()
	e.snapshot = messages
	e.mu.Unlock()
	return nil
}

// Refresh runs one extraction-and-reconcile pass. Persistence is
// fire-and-forget: a failed write never surfaces as an extraction failure.
// An empty extraction leaves the stored conversation untouched, so a
// transiently blank page cannot wipe it.
func (e *Engine) Refresh() {
	fresh := e.extractor.Extract(e.doc, e.rule, e.platform, e.path)
	if len(fresh) == 0 {
		return
	}

	e.mu.Lock()
	merged := Reconcile(e.snapshot, fresh, e.prefixLen)
	var favorited []*domain.Message
	for _, msg := range merged {
		if !msg.Favorited && e.favorites.Has(msg.Fingerprint()) {
			msg.Favorited = true
		}
		if msg.Favorited {
			favorited = append(favorited, msg)
		}
	}
	e.snapshot = merged
	view := e.snapshotLocked()
	fns := make([]func([]*domain.Message), len(e.updateFns))
	copy(fns, e.updateFns)
	e.mu.Unlock()

	e.favorites.ReplaceConversation(e.platform, e.path, favorited)
	e.writer.SaveSnapshot(e.platform, e.path, view)
	e.writer.SaveFavorites(e.favorites.Favorites())

	e.logger.Debug("reconciled snapshot",
		logger.String("platform", string(e.platform)),
		logger.Int("messages", len(merged)),
		logger.Int("favorited", len(favorited)))

	for _, fn := range fns {
		fn(view)
	}
}

// OnUpdate registers a callback invoked with the new snapshot after every
// successful reconciliation pass.
func (e *Engine) OnUpdate(fn func([]*domain.Message)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.updateFns = append(e.updateFns, fn)
}

// Messages returns the filtered view in snapshot order plus the unfiltered
// total, so callers can tell "nothing captured yet" apart from "nothing
// matches".
func (e *Engine) Messages(f Filter) ([]*domain.Message, int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := len(e.snapshot)
	out := make([]*domain.Message, 0, total)
	for _, msg := range e.snapshot {
		if f.Role != "" && msg.Role != f.Role {
			continue
		}
		if f.CollectionID != "" && msg.CollectionID != f.CollectionID {
			continue
		}
		if f.FavoritesOnly && !msg.Favorited {
			continue
		}
		if !msg.Matches(f.Query) {
			continue
		}
		out = append(out, msg)
	}
	return out, total
}

// ToggleFavorite flips the favorited flag of the snapshot message matching
// (role, content) and mirrors the change into the global favorites index.
func (e *Engine) ToggleFavorite(role domain.Role, content string) (*domain.Message, error) {
	key := domain.IdentityKeyFor(role, content, e.prefixLen)

	e.mu.Lock()
	var target *domain.Message
	for _, msg := range e.snapshot {
		if domain.IdentityKeyFor(msg.Role, msg.Content, e.prefixLen) == key {
			target = msg
			break
		}
	}
	if target == nil {
		e.mu.Unlock()
		return nil, ErrMessageNotFound
	}
	target.Favorited = !target.Favorited
	view := e.snapshotLocked()
	e.mu.Unlock()

	if target.Favorited {
		e.favorites.Put(target)
	} else {
		e.favorites.Delete(target.Fingerprint())
	}

	e.writer.SaveSnapshot(e.platform, e.path, view)
	e.writer.SaveFavorites(e.favorites.Favorites())
	return target, nil
}

// AssignToCollection sets the collection identifier on each referenced
// message and persists. Collection existence is the caller's concern; the
// panel only offers identifiers it created. Returns how many messages were
// assigned.
func (e *Engine) AssignToCollection(keys []string, collectionID string) int {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}

	e.mu.Lock()
	assigned := 0
	for _, msg := range e.snapshot {
		if want[domain.IdentityKeyFor(msg.Role, msg.Content, e.prefixLen)] {
			msg.CollectionID = collectionID
			assigned++
		}
	}
	view := e.snapshotLocked()
	e.mu.Unlock()

	if assigned > 0 {
		e.writer.SaveSnapshot(e.platform, e.path, view)
	}
	return assigned
}

// CreateCollection validates and creates a global collection, tagged with
// this engine's platform, and persists the collection list.
func (e *Engine) CreateCollection(name string) (*domain.Collection, error) {
	c, err := e.favorites.CreateCollection(name, e.platform)
	if err != nil {
		return nil, err
	}
	e.writer.SaveCollections(e.favorites.Collections())
	return c, nil
}

// KeyFor computes the identity key the engine uses for (role, content),
// honoring the configured prefix length. The panel echoes these keys back
// when assigning messages to collections.
func (e *Engine) KeyFor(role domain.Role, content string) string {
	return domain.IdentityKeyFor(role, content, e.prefixLen)
}

// Platform returns the conversation's platform.
func (e *Engine) Platform() domain.Platform { return e.platform }

// Path returns the conversation's URL path.
func (e *Engine) Path() string { return e.path }

// Rule returns the extraction rule in effect.
func (e *Engine) Rule() domain.PlatformRule { return e.rule }

func (e *Engine) snapshotLocked() []*domain.Message {
	out := make([]*domain.Message, len(e.snapshot))
	copy(out, e.snapshot)
	return out
}
