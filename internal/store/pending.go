package store

import (
	"context"
	"encoding/json"

	"coopcart-cli/internal/model"
)

// AppendOp persists one pending operation. The record is durable before this
// returns; callers may only treat the op as enqueued on a nil error.
func (s Store) AppendOp(ctx context.Context, op model.PendingOp) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	raw, err := json.Marshal(op)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO pending_ops(id, type, timestamp_unixms, json) VALUES(?, ?, ?, ?)`,
		op.ID, string(op.Type), op.Timestamp, string(raw))
	return err
}

// ListOps returns all pending operations ordered by enqueue time then id.
func (s Store) ListOps(ctx context.Context) ([]model.PendingOp, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ops, err := readJSONRows[model.PendingOp](ctx, db,
		`SELECT json FROM pending_ops ORDER BY timestamp_unixms, id`)
	if err != nil {
		return nil, err
	}
	if ops == nil {
		ops = []model.PendingOp{}
	}
	return ops, nil
}

// ClearOps removes every pending operation.
func (s Store) ClearOps(ctx context.Context) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, `DELETE FROM pending_ops`)
	return err
}

// CountOps reports the number of queued operations.
func (s Store) CountOps(ctx context.Context) (int, error) {
	db, err := s.open(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM pending_ops`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
