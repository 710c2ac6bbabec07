package store

import (
	"context"
	"sync"
	"time"

	"github.com/threadly/threadly/internal/domain"
	"github.com/threadly/threadly/internal/logger"
)

const (
	writeTimeout = 5 * time.Second
	queueDepth   = 64
)

// Writer makes persistence fire-and-forget while keeping writes for the
// same storage key in initiation order. A newer pass computes its snapshot
// from live page state, so an older write landing later would silently win;
// one queue per key rules that out.
type Writer struct {
	store  Store
	logger logger.Logger

	mu     sync.Mutex
	queues map[string]chan func(context.Context)
	closed bool
	wg     sync.WaitGroup
}

// NewWriter creates a writer on top of a store.
func NewWriter(s Store, log logger.Logger) *Writer {
	return &Writer{
		store:  s,
		logger: log,
		queues: make(map[string]chan func(context.Context)),
	}
}

// SaveSnapshot enqueues a snapshot write for its (platform, path) key.
func (w *Writer) SaveSnapshot(platform domain.Platform, path string, messages []*domain.Message) {
	key := "snapshot:" + string(platform) + ":" + path
	count := len(messages)
	w.enqueue(key, func(ctx context.Context) {
		if err := w.store.SaveSnapshot(ctx, platform, path, messages); err != nil {
			w.logger.Warn("snapshot persistence failed",
				logger.String("platform", string(platform)),
				logger.String("path", path),
				logger.Int("messages", count),
				logger.Error(err))
		}
	})
}

// SaveFavorites enqueues a write of the global favorites entry.
func (w *Writer) SaveFavorites(entries []*domain.FavoriteEntry) {
	w.enqueue("favorites", func(ctx context.Context) {
		if err := w.store.SaveFavorites(ctx, entries); err != nil {
			w.logger.Warn("favorites persistence failed", logger.Error(err))
		}
	})
}

// SaveCollections enqueues a write of the global collections entry.
func (w *Writer) SaveCollections(collections []*domain.Collection) {
	w.enqueue("collections", func(ctx context.Context) {
		if err := w.store.SaveCollections(ctx, collections); err != nil {
			w.logger.Warn("collections persistence failed", logger.Error(err))
		}
	})
}

func (w *Writer) enqueue(key string, job func(context.Context)) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	queue, ok := w.queues[key]
	if !ok {
		queue = make(chan func(context.Context), queueDepth)
		w.queues[key] = queue
		w.wg.Add(1)
		go w.drain(queue)
	}
	w.mu.Unlock()

	select {
	case queue <- job:
		return
	default:
	}

	// Queue saturated: evict the oldest pending write so the newest state
	// still lands. Every job for a key writes that key's full state, so an
	// older write is obsolete the moment a newer one exists.
	select {
	case <-queue:
	default:
	}
	select {
	case queue <- job:
	default:
		w.logger.Warn("persistence queue full, dropping write",
			logger.String("key", key))
	}
}

func (w *Writer) drain(queue chan func(context.Context)) {
	defer w.wg.Done()
	for job := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		job(ctx)
		cancel()
	}
}

// Close stops accepting writes and waits for queued ones to complete.
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	for _, queue := range w.queues {
		close(queue)
	}
	w.mu.Unlock()

	w.wg.Wait()
}
