// Package persistence writes registry snapshots in the background
package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/haecker-felix/hebbot/internal/domain/news/deps"
	"github.com/haecker-felix/hebbot/internal/domain/news/entities"
	newserrors "github.com/haecker-felix/hebbot/internal/domain/news/errors"
)

// Recorder receives write statistics
type Recorder interface {
	RecordSnapshotWrite(duration float64, err error)
}

// Writer saves snapshots on a single goroutine. Scheduling never blocks: a
// snapshot waiting to be written is replaced by a newer one, and writes
// never overlap.
type Writer struct {
	store    deps.SnapshotStore
	recorder Recorder
	logger   zerolog.Logger
	onError  func(error)

	mu        sync.Mutex
	pending   *entities.Snapshot
	scheduled uint64
	completed uint64
	lastErr   error
	changed   chan struct{}

	wake   chan struct{}
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// NewWriter creates a new Writer
func NewWriter(store deps.SnapshotStore, recorder Recorder, logger zerolog.Logger) *Writer {
	ctx, cancel := context.WithCancel(context.Background())

	return &Writer{
		store:    store,
		recorder: recorder,
		logger:   logger.With().Str("component", "snapshot-writer").Logger(),
		changed:  make(chan struct{}),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// OnError sets the callback for failed writes. It runs on the writer goroutine.
func (w *Writer) OnError(fn func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = fn
}

// Load reads the stored snapshot. A missing snapshot is an empty one; an
// unreadable one is an error.
func (w *Writer) Load(ctx context.Context) (entities.Snapshot, error) {
	snap, found, err := w.store.Load(ctx)
	if err != nil {
		return entities.Snapshot{}, fmt.Errorf("%w: %w", newserrors.ErrSnapshotCorrupt, err)
	}
	if !found {
		w.logger.Info().Msg("No stored snapshot, starting with an empty registry")
		return entities.Snapshot{Version: entities.SnapshotVersion}, nil
	}

	w.logger.Info().Int("news_items", len(snap.Items)).Msg("Snapshot loaded")
	return snap, nil
}

// Schedule queues snap for writing and returns immediately
func (w *Writer) Schedule(snap entities.Snapshot) {
	w.mu.Lock()
	w.pending = &snap
	w.scheduled++
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Start starts the writer goroutine
func (w *Writer) Start() {
	w.logger.Info().Msg("Starting snapshot writer...")

	go func() {
		defer close(w.done)
		for {
			select {
			case <-w.ctx.Done():
				return
			case <-w.wake:
				w.drain()
			}
		}
	}()
}

// drain writes the most recent pending snapshot until none is left
func (w *Writer) drain() {
	for {
		w.mu.Lock()
		snap := w.pending
		target := w.scheduled
		w.pending = nil
		w.mu.Unlock()

		if snap == nil {
			return
		}

		start := time.Now()
		err := w.store.Save(w.ctx, *snap)
		if w.recorder != nil {
			w.recorder.RecordSnapshotWrite(time.Since(start).Seconds(), err)
		}

		w.mu.Lock()
		w.completed = target
		w.lastErr = err
		onError := w.onError
		close(w.changed)
		w.changed = make(chan struct{})
		w.mu.Unlock()

		if err != nil {
			w.logger.Error().Err(err).Int("news_items", len(snap.Items)).Msg("Failed to write snapshot")
			if onError != nil {
				onError(fmt.Errorf("%w: %w", newserrors.ErrSnapshotWrite, err))
			}
			continue
		}

		w.logger.Debug().Int("news_items", len(snap.Items)).Msg("Snapshot written")
	}
}

// Flush waits until every snapshot scheduled before the call is written or
// superseded, and returns the error of the last write.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	target := w.scheduled
	w.mu.Unlock()

	for {
		w.mu.Lock()
		if w.completed >= target {
			err := w.lastErr
			w.mu.Unlock()
			return err
		}
		changed := w.changed
		w.mu.Unlock()

		select {
		case <-changed:
		case <-w.done:
			return errors.New("snapshot writer stopped")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stop flushes pending writes and stops the writer goroutine
func (w *Writer) Stop(ctx context.Context) error {
	w.logger.Info().Msg("Stopping snapshot writer...")

	err := w.Flush(ctx)
	w.cancel()
	<-w.done

	if err != nil {
		w.logger.Error().Err(err).Msg("Last snapshot write failed")
		return err
	}

	w.logger.Info().Msg("Snapshot writer stopped successfully")
	return nil
}
