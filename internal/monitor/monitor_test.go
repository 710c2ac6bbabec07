package monitor

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/threadly/threadly/internal/dom"
	"github.com/threadly/threadly/internal/dom/memdom"
	"github.com/threadly/threadly/internal/logger"
)

func fastOptions() Options {
	return Options{
		RetryDelay:     10 * time.Millisecond,
		MaxRetries:     5,
		DebounceWindow: 20 * time.Millisecond,
	}
}

func containerDoc() (*memdom.Document, *memdom.Node) {
	doc := memdom.NewDocument()
	container := memdom.NewNode("main")
	doc.Root().Append(container)
	return doc, container
}

func resolveFrom(doc *memdom.Document) func() dom.Node {
	return func() dom.Node {
		if nodes := doc.Query("main"); len(nodes) > 0 {
			return nodes[0]
		}
		return nil
	}
}

func TestMonitorExtractsOnArm(t *testing.T) {
	doc, _ := containerDoc()

	var extracts atomic.Int32
	m := New(doc, resolveFrom(doc), func() { extracts.Add(1) }, fastOptions(), logger.Nop())
	m.Start()
	defer m.Stop()

	if got := m.State(); got != StateObserving {
		t.Fatalf("state = %v, want observing", got)
	}
	if got := extracts.Load(); got != 1 {
		t.Errorf("arming ran %d extractions, want 1 immediate pass", got)
	}
}

func TestMonitorDebouncesMutationBursts(t *testing.T) {
	doc, container := containerDoc()

	var extracts atomic.Int32
	m := New(doc, resolveFrom(doc), func() { extracts.Add(1) }, fastOptions(), logger.Nop())
	m.Start()
	defer m.Stop()
	extracts.Store(0) // discard the arming pass

	for i := 0; i < 5; i++ {
		container.Append(memdom.NewNode("div"))
	}

	time.Sleep(100 * time.Millisecond)
	if got := extracts.Load(); got != 1 {
		t.Errorf("mutation burst ran %d extractions, want 1", got)
	}
}

func TestMonitorIgnoresNonStructuralMutations(t *testing.T) {
	doc, container := containerDoc()
	child := memdom.NewNode("p").WithText("before")
	container.Append(child)

	var extracts atomic.Int32
	m := New(doc, resolveFrom(doc), func() { extracts.Add(1) }, fastOptions(), logger.Nop())
	m.Start()
	defer m.Stop()
	extracts.Store(0)

	child.SetText("after")

	time.Sleep(100 * time.Millisecond)
	if got := extracts.Load(); got != 0 {
		t.Errorf("text-only mutation ran %d extractions, want 0", got)
	}
}

func TestMonitorRetriesThenObserves(t *testing.T) {
	doc := memdom.NewDocument()

	var extracts atomic.Int32
	m := New(doc, resolveFrom(doc), func() { extracts.Add(1) }, fastOptions(), logger.Nop())
	m.Start()
	defer m.Stop()

	if got := m.State(); got != StateWaitingForContainer {
		t.Fatalf("state = %v, want waiting_for_container", got)
	}

	// Container shows up before the retry ceiling.
	doc.Root().Append(memdom.NewNode("main"))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if m.State() == StateObserving {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("monitor never reached observing, state = %v", m.State())
}

func TestMonitorGivesUpAfterMaxRetries(t *testing.T) {
	doc := memdom.NewDocument() // no container, ever

	var mu sync.Mutex
	attempts := 0
	resolve := func() dom.Node {
		mu.Lock()
		attempts++
		mu.Unlock()
		return nil
	}

	m := New(doc, resolve, func() {}, fastOptions(), logger.Nop())
	m.Start()
	defer m.Stop()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && m.State() != StateGaveUp {
		time.Sleep(5 * time.Millisecond)
	}

	if got := m.State(); got != StateGaveUp {
		t.Fatalf("state = %v, want gave_up", got)
	}

	mu.Lock()
	got := attempts
	mu.Unlock()
	if got != 5 {
		t.Errorf("resolution attempted %d times, want exactly 5", got)
	}

	// Terminal: no further attempts after giving up.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	after := attempts
	mu.Unlock()
	if after != got {
		t.Errorf("gave_up is not terminal, attempts grew from %d to %d", got, after)
	}
}

func TestMonitorStopCancelsPendingExtraction(t *testing.T) {
	doc, container := containerDoc()

	var extracts atomic.Int32
	m := New(doc, resolveFrom(doc), func() { extracts.Add(1) }, fastOptions(), logger.Nop())
	m.Start()
	extracts.Store(0)

	container.Append(memdom.NewNode("div"))
	m.Stop() // debounced extraction is pending

	time.Sleep(100 * time.Millisecond)
	if got := extracts.Load(); got != 0 {
		t.Errorf("pending extraction fired %d times after Stop, want 0", got)
	}
}

func TestNavWatcherDetectsRouteChange(t *testing.T) {
	loc := memdom.NewLocation("claude.ai", "/chat/one")

	type nav struct{ host, path string }
	navCh := make(chan nav, 1)
	nw := NewNavWatcher(loc, 10*time.Millisecond, func(host, path string) {
		navCh <- nav{host, path}
	}, logger.Nop())
	nw.Start()
	defer nw.Stop()

	loc.Navigate("claude.ai", "/chat/two")

	select {
	case got := <-navCh:
		if got.path != "/chat/two" {
			t.Errorf("onChange path = %q, want /chat/two", got.path)
		}
	case <-time.After(time.Second):
		t.Fatal("navigation change never reported")
	}
}

func TestNavWatcherCatchesChangeRightAfterStart(t *testing.T) {
	// The baseline must be sampled before Start returns. A change landing
	// in the gap between Start and the poll goroutine's first read is a
	// navigation, not the starting address.
	for i := 0; i < 20; i++ {
		loc := memdom.NewLocation("claude.ai", "/chat/one")

		navCh := make(chan string, 1)
		nw := NewNavWatcher(loc, 10*time.Millisecond, func(_, path string) {
			navCh <- path
		}, logger.Nop())
		nw.Start()
		loc.Navigate("claude.ai", "/chat/two")

		select {
		case path := <-navCh:
			if path != "/chat/two" {
				t.Errorf("onChange path = %q, want /chat/two", path)
			}
		case <-time.After(time.Second):
			t.Fatal("navigation right after Start never reported")
		}
		nw.Stop()
	}
}

func TestNavWatcherStableAddressStaysQuiet(t *testing.T) {
	loc := memdom.NewLocation("claude.ai", "/chat/one")

	var calls atomic.Int32
	nw := NewNavWatcher(loc, 10*time.Millisecond, func(string, string) { calls.Add(1) }, logger.Nop())
	nw.Start()
	defer nw.Stop()

	time.Sleep(100 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("stable address reported %d changes, want 0", got)
	}
}
