package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"coopcart-cli/internal/model"
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// GetItems returns all items in a space, ordered by creation time then id.
func (s Store) GetItems(ctx context.Context, spaceID string) ([]model.Item, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	items, err := readJSONRows[model.Item](ctx, db,
		`SELECT json FROM items WHERE space_id = ? ORDER BY created_at_unixms, id`, spaceID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

func (s Store) PutItem(ctx context.Context, it model.Item) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return insertItem(ctx, db, it)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertItem(ctx context.Context, db execer, it model.Item) error {
	raw, err := json.Marshal(it)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT OR REPLACE INTO items(
		id, space_id, category, name, checked, created_at_unixms, json, updated_at_unixms
	) VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.SpaceID, it.Category, it.Name, boolToInt(it.Checked),
		it.CreatedAt.UTC().UnixMilli(), string(raw), it.UpdatedAt.UTC().UnixMilli())
	return err
}

// UpdateItem applies a partial field patch (wire-format JSON keys) to one
// item. The patch is merged into the stored JSON and the indexed columns are
// recomputed from the result.
func (s Store) UpdateItem(ctx context.Context, id string, patch map[string]any) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	var js string
	err = db.QueryRowContext(ctx, `SELECT json FROM items WHERE id = ?`, id).Scan(&js)
	if err == sql.ErrNoRows {
		return NotFoundError{Kind: "item", ID: id}
	}
	if err != nil {
		return err
	}

	merged := map[string]any{}
	if err := json.Unmarshal([]byte(js), &merged); err != nil {
		return err
	}
	for k, v := range patch {
		merged[k] = v
	}
	b, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	var it model.Item
	if err := json.Unmarshal(b, &it); err != nil {
		return err
	}
	it.ID = id // ids are immutable; a patch can never rewrite one
	return insertItem(ctx, db, it)
}

func (s Store) DeleteItem(ctx context.Context, id string) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	return err
}

// ClearItems removes every item in one space.
func (s Store) ClearItems(ctx context.Context, spaceID string) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, `DELETE FROM items WHERE space_id = ?`, spaceID)
	return err
}

// ClearAll removes every item across all spaces.
func (s Store) ClearAll(ctx context.Context) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, `DELETE FROM items`)
	return err
}

// ReplaceAll clears all items and bulk-inserts the given set in one
// transaction. Used when adopting an authoritative server snapshot.
func (s Store) ReplaceAll(ctx context.Context, items []model.Item) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return err
	}
	for _, it := range items {
		if err := insertItem(ctx, tx, it); err != nil {
			return err
		}
	}
	return tx.Commit()
}
