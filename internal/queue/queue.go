// Package queue is the ordered, durable log of not-yet-acknowledged local
// mutations. It is a thin wrapper over the store's append-only op log: the
// queue assigns identity and timestamps, the store owns persistence.
package queue

import (
	"context"
	"sync"
	"time"

	"coopcart-cli/internal/model"
)

// Log is the slice of the durable store the queue needs.
type Log interface {
	AppendOp(ctx context.Context, op model.PendingOp) error
	ListOps(ctx context.Context) ([]model.PendingOp, error)
	ClearOps(ctx context.Context) error
	CountOps(ctx context.Context) (int, error)
}

// IDFunc supplies op identifiers; swapped out in tests for determinism.
type IDFunc func() string

type Queue struct {
	log   Log
	newID IDFunc
	now   func() time.Time

	mu     sync.Mutex
	lastTS int64
}

func New(log Log, newID IDFunc) *Queue {
	return &Queue{log: log, newID: newID, now: time.Now}
}

// nextTimestamp returns a strictly increasing unix-ms timestamp so that two
// enqueues within the same millisecond still read back in causal order.
func (q *Queue) nextTimestamp() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	ts := q.now().UTC().UnixMilli()
	if ts <= q.lastTS {
		ts = q.lastTS + 1
	}
	q.lastTS = ts
	return ts
}

// Enqueue assigns an id and timestamp and persists the op. On error nothing
// was enqueued.
func (q *Queue) Enqueue(ctx context.Context, kind model.OpKind, data model.OpData) (model.PendingOp, error) {
	op := model.PendingOp{
		ID:        q.newID(),
		Type:      kind,
		Data:      data,
		Timestamp: q.nextTimestamp(),
	}
	if err := q.log.AppendOp(ctx, op); err != nil {
		return model.PendingOp{}, err
	}
	return op, nil
}

// Snapshot returns the full ordered list without mutating the queue.
func (q *Queue) Snapshot(ctx context.Context) ([]model.PendingOp, error) {
	return q.log.ListOps(ctx)
}

// Clear removes all entries. Only called once a server has acknowledged
// exactly the batch from the preceding Snapshot. Acknowledgment is
// all-or-nothing, never per-op.
func (q *Queue) Clear(ctx context.Context) error {
	return q.log.ClearOps(ctx)
}

func (q *Queue) Len(ctx context.Context) (int, error) {
	return q.log.CountOps(ctx)
}
