package monitor

import (
	"sync"
	"time"

	"github.com/threadly/threadly/internal/dom"
	"github.com/threadly/threadly/internal/logger"
)

// State is the monitor's lifecycle position.
type State int

const (
	// StateUnarmed: created or externally reset, not yet resolving.
	StateUnarmed State = iota
	// StateWaitingForContainer: container locator not resolved yet,
	// bounded retries pending.
	StateWaitingForContainer
	// StateObserving: subscribed to container mutations.
	StateObserving
	// StateGaveUp: retry ceiling exceeded. Terminal until an external
	// re-arm (navigation reset) constructs a fresh monitor.
	StateGaveUp
)

func (s State) String() string {
	switch s {
	case StateUnarmed:
		return "unarmed"
	case StateWaitingForContainer:
		return "waiting_for_container"
	case StateObserving:
		return "observing"
	case StateGaveUp:
		return "gave_up"
	default:
		return "invalid"
	}
}

const (
	// DefaultRetryDelay between container resolution attempts.
	DefaultRetryDelay = 3000 * time.Millisecond
	// DefaultMaxRetries is the resolution attempt ceiling.
	DefaultMaxRetries = 5
	// DefaultDebounceWindow coalesces mutation bursts into one extraction.
	DefaultDebounceWindow = 500 * time.Millisecond
)

// Options tune the monitor. Zero values take the defaults above.
type Options struct {
	RetryDelay     time.Duration
	MaxRetries     int
	DebounceWindow time.Duration
}

func (o Options) withDefaults() Options {
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = DefaultDebounceWindow
	}
	return o
}

// Monitor arms a mutation subscription on the conversation container and
// triggers debounced extraction passes. Container acquisition retries a
// bounded number of times while the site is still loading.
type Monitor struct {
	doc       dom.Document
	resolve   func() dom.Node
	onExtract func()
	opts      Options
	logger    logger.Logger
	debounce  *Debouncer

	mu         sync.Mutex
	state      State
	attempts   int
	sub        dom.Subscription
	retryTimer *time.Timer
	stopped    bool
}

// New creates a monitor. resolve locates the container (nil = not present
// yet); onExtract runs one extraction-and-reconcile pass.
func New(doc dom.Document, resolve func() dom.Node, onExtract func(), opts Options, log logger.Logger) *Monitor {
	opts = opts.withDefaults()
	return &Monitor{
		doc:       doc,
		resolve:   resolve,
		onExtract: onExtract,
		opts:      opts,
		logger:    log,
		debounce:  NewDebouncer(opts.DebounceWindow),
		state:     StateUnarmed,
	}
}

// Start begins container acquisition. Safe to call once per monitor; a
// navigation reset builds a fresh monitor instead of restarting this one.
func (m *Monitor) Start() {
	m.arm()
}

// State returns the current lifecycle state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Attempts returns how many container resolutions have been tried.
func (m *Monitor) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// arm makes one container resolution attempt and either subscribes or
// schedules a retry.
func (m *Monitor) arm() {
	m.mu.Lock()
	if m.stopped || m.state == StateObserving || m.state == StateGaveUp {
		m.mu.Unlock()
		return
	}
	m.state = StateWaitingForContainer
	m.attempts++
	attempt := m.attempts
	m.mu.Unlock()

	container := m.resolve()

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}

	if container == nil {
		if attempt >= m.opts.MaxRetries {
			m.state = StateGaveUp
			m.mu.Unlock()
			m.logger.Warn("container never appeared, giving up",
				logger.Int("attempts", attempt))
			return
		}
		m.retryTimer = time.AfterFunc(m.opts.RetryDelay, m.arm)
		m.mu.Unlock()
		m.logger.Debug("container not present yet, retry scheduled",
			logger.Int("attempt", attempt),
			logger.Duration("delay", m.opts.RetryDelay))
		return
	}

	sub, err := m.doc.Watch(container, m.onMutations)
	if err != nil {
		// Treat a failed subscription like an unresolved container.
		if attempt >= m.opts.MaxRetries {
			m.state = StateGaveUp
			m.mu.Unlock()
			m.logger.Warn("mutation subscription failed, giving up", logger.Error(err))
			return
		}
		m.retryTimer = time.AfterFunc(m.opts.RetryDelay, m.arm)
		m.mu.Unlock()
		m.logger.Warn("mutation subscription failed, retry scheduled", logger.Error(err))
		return
	}

	m.state = StateObserving
	m.attempts = 0
	m.sub = sub
	m.mu.Unlock()

	m.logger.Debug("observing container mutations")
	m.onExtract()
}

// onMutations receives one batch of mutation notifications. Batches without
// node additions or removals never trigger extraction.
func (m *Monitor) onMutations(batch dom.MutationBatch) {
	if !batch.Structural() {
		return
	}
	m.debounce.Trigger(m.runExtract)
}

func (m *Monitor) runExtract() {
	m.mu.Lock()
	stopped := m.stopped
	m.mu.Unlock()
	if stopped {
		return
	}
	m.onExtract()
}

// Stop disconnects the subscription and cancels scheduled work. A debounced
// extraction already pending must not fire after Stop.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	if m.retryTimer != nil {
		m.retryTimer.Stop()
	}
	sub := m.sub
	m.sub = nil
	m.mu.Unlock()

	m.debounce.Cancel()
	if sub != nil {
		sub.Close()
	}
}
