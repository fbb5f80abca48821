// Package history records partner matches off the request path. Matches are
// queued in the store's history queue and written by a polling Worker, so a
// slow or failing write never holds up a match response.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kalambet/studymatch/internal/metrics"
	"github.com/kalambet/studymatch/internal/storage"
)

// Queue is the history queue plus the table it drains into.
// Implemented by storage.Store.
type Queue interface {
	ClaimMatchHistory(now time.Time) (*storage.QueuedHistory, error)
	FinishMatchHistory(historyID string) error
	RetryMatchHistory(historyID, cause string, now time.Time) (dead bool, err error)
	SaveMatchHistory(h storage.MatchHistory) error
}

// Worker drains the history queue.
type Worker struct {
	queue  Queue
	poll   time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewWorker creates a Worker. If pollInterval is <= 0, it defaults to 500ms.
func NewWorker(queue Queue, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Worker{
		queue:  queue,
		poll:   pollInterval,
		now:    time.Now,
		logger: slog.Default(),
	}
}

// Run writes queued records until ctx is cancelled, sleeping for the poll
// interval whenever the queue has nothing due.
func (w *Worker) Run(ctx context.Context) {
	for ctx.Err() == nil {
		worked, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("history worker iteration failed", "error", err)
		}
		if worked {
			continue
		}

		select {
		case <-ctx.Done():
		case <-time.After(w.poll):
		}
	}
}

// RunOnce writes at most one queued record. It reports whether a record was
// claimed, whether or not the write succeeded.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	q, err := w.queue.ClaimMatchHistory(w.now())
	if err != nil {
		return false, err
	}
	if q == nil {
		return false, nil
	}

	id := q.Record.ID
	if err := w.write(ctx, q.Record); err != nil {
		metrics.RecordHistoryWrite("failed")
		dead, retryErr := w.queue.RetryMatchHistory(id, err.Error(), w.now())
		if retryErr != nil {
			return true, fmt.Errorf("requeueing match history %s: %w", id, retryErr)
		}
		if dead {
			w.logger.Error("giving up on match history", "history_id", id, "attempts", q.Attempts, "error", err)
		} else {
			w.logger.Warn("match history write failed, will retry", "history_id", id, "attempt", q.Attempts, "error", err)
		}
		return true, nil
	}

	metrics.RecordHistoryWrite("written")
	if err := w.queue.FinishMatchHistory(id); err != nil {
		return true, fmt.Errorf("finishing match history %s: %w", id, err)
	}
	return true, nil
}

func (w *Worker) write(ctx context.Context, h storage.MatchHistory) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := w.queue.SaveMatchHistory(h)
	if errors.Is(err, storage.ErrConflict) {
		// An earlier attempt wrote the row but failed before finishing.
		w.logger.Debug("match history already recorded", "history_id", h.ID)
		return nil
	}
	return err
}
