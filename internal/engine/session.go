package engine

import (
	"context"
	"sync"
	"time"

	"github.com/threadly/threadly/internal/dom"
	"github.com/threadly/threadly/internal/domain"
	"github.com/threadly/threadly/internal/extract"
	"github.com/threadly/threadly/internal/index"
	"github.com/threadly/threadly/internal/logger"
	"github.com/threadly/threadly/internal/monitor"
	"github.com/threadly/threadly/internal/rules"
	"github.com/threadly/threadly/internal/store"
)

// SessionConfig wires a session to its page and shared state.
type SessionConfig struct {
	Doc       dom.Document
	Loc       dom.Location
	Registry  *rules.Registry
	Store     store.Store
	Writer    *store.Writer
	Favorites *index.FavoritesIndex
	Extractor *extract.Extractor
	Logger    logger.Logger

	Monitor         monitor.Options
	NavPollInterval time.Duration
	PrefixLen       int
}

// Session binds the engine to one browser page across navigations. On every
// URL change it tears the current engine and monitor down and rebuilds them
// from scratch: platform re-detected, in-memory message state cleared,
// monitor back to unarmed.
type Session struct {
	cfg SessionConfig
	nav *monitor.NavWatcher

	mu        sync.Mutex
	engine    *Engine
	mon       *monitor.Monitor
	updateFns []func([]*domain.Message)
	stopped   bool
}

// NewSession creates a session; Start arms it.
func NewSession(cfg SessionConfig) *Session {
	return &Session{cfg: cfg}
}

// Start arms the session for the current page address and begins watching
// for navigation.
func (s *Session) Start(ctx context.Context) {
	s.arm(ctx)
	s.nav = monitor.NewNavWatcher(s.cfg.Loc, s.cfg.NavPollInterval, s.onNavigate, s.cfg.Logger)
	s.nav.Start()
}

func (s *Session) onNavigate(_, _ string) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	mon := s.mon
	s.mon = nil
	s.engine = nil
	s.mu.Unlock()

	if mon != nil {
		mon.Stop()
	}
	s.arm(context.Background())
}

// arm detects the platform for the current address and, when known, builds
// a fresh engine and monitor pair.
func (s *Session) arm(ctx context.Context) {
	host, path := s.cfg.Loc.Host(), s.cfg.Loc.Path()
	platform := rules.Detect(host)
	if !platform.Known() {
		s.cfg.Logger.Info("platform not recognized, engine idle",
			logger.String("host", host))
		return
	}
	rule, ok := s.cfg.Registry.RuleFor(platform)
	if !ok {
		s.cfg.Logger.Warn("no rule set for platform",
			logger.String("platform", string(platform)))
		return
	}

	eng := New(Config{
		Platform:  platform,
		Path:      path,
		Rule:      rule,
		Doc:       s.cfg.Doc,
		Extractor: s.cfg.Extractor,
		Favorites: s.cfg.Favorites,
		Writer:    s.cfg.Writer,
		Logger:    s.cfg.Logger,
		PrefixLen: s.cfg.PrefixLen,
	})
	if err := eng.Bootstrap(ctx, s.cfg.Store); err != nil {
		// Start from an empty snapshot; the first pass repopulates it.
		s.cfg.Logger.Warn("failed to load persisted snapshot",
			logger.String("platform", string(platform)),
			logger.String("path", path),
			logger.Error(err))
	}
	eng.OnUpdate(s.fanout)

	doc := s.cfg.Doc
	mon := monitor.New(doc,
		func() dom.Node { return extract.ResolveContainer(doc, rule) },
		eng.Refresh,
		s.cfg.Monitor,
		s.cfg.Logger,
	)

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.engine = eng
	s.mon = mon
	s.mu.Unlock()

	s.cfg.Logger.Info("session armed",
		logger.String("platform", string(platform)),
		logger.String("path", path))
	mon.Start()
}

// fanout relays engine updates to session-level subscribers, which survive
// engine swaps across navigations.
func (s *Session) fanout(messages []*domain.Message) {
	s.mu.Lock()
	fns := make([]func([]*domain.Message), len(s.updateFns))
	copy(fns, s.updateFns)
	s.mu.Unlock()

	for _, fn := range fns {
		fn(messages)
	}
}

// OnUpdate registers a snapshot callback that survives navigation resets.
func (s *Session) OnUpdate(fn func([]*domain.Message)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateFns = append(s.updateFns, fn)
}

// Engine returns the active engine, or nil while the platform is unknown.
func (s *Session) Engine() *Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

// MonitorState reports the change monitor's state, unarmed when idle.
func (s *Session) MonitorState() monitor.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mon == nil {
		return monitor.StateUnarmed
	}
	return s.mon.State()
}

// Stop tears the session down: navigation watch, monitor, engine.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	mon := s.mon
	s.mon = nil
	s.engine = nil
	s.mu.Unlock()

	if s.nav != nil {
		s.nav.Stop()
	}
	if mon != nil {
		mon.Stop()
	}
}
