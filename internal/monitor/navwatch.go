package monitor

import (
	"sync"
	"time"

	"github.com/threadly/threadly/internal/dom"
	"github.com/threadly/threadly/internal/logger"
)

// DefaultNavPollInterval is how often the page address is sampled.
const DefaultNavPollInterval = 1 * time.Second

// NavWatcher polls the page location to catch single-page-app routing,
// which changes the URL without a document reload. On change the session is
// expected to fully reset its engine and monitor.
type NavWatcher struct {
	loc      dom.Location
	interval time.Duration
	onChange func(host, path string)
	logger   logger.Logger

	once   sync.Once
	stopCh chan struct{}
}

// NewNavWatcher creates a watcher. interval <= 0 takes the default.
func NewNavWatcher(loc dom.Location, interval time.Duration, onChange func(host, path string), log logger.Logger) *NavWatcher {
	if interval <= 0 {
		interval = DefaultNavPollInterval
	}
	return &NavWatcher{
		loc:      loc,
		interval: interval,
		onChange: onChange,
		logger:   log,
		stopCh:   make(chan struct{}),
	}
}

// Start begins polling from the current address. The baseline is sampled
// before Start returns; a change landing right after Start is a navigation,
// not the starting point.
func (nw *NavWatcher) Start() {
	host, path := nw.loc.Host(), nw.loc.Path()
	go nw.loop(host, path)
}

func (nw *NavWatcher) loop(lastHost, lastPath string) {
	ticker := time.NewTicker(nw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			host, path := nw.loc.Host(), nw.loc.Path()
			if host == lastHost && path == lastPath {
				continue
			}
			nw.logger.Info("navigation detected",
				logger.String("host", host),
				logger.String("path", path))
			lastHost, lastPath = host, path
			nw.onChange(host, path)
		case <-nw.stopCh:
			return
		}
	}
}

// Stop halts polling.
func (nw *NavWatcher) Stop() {
	nw.once.Do(func() { close(nw.stopCh) })
}
