// Package list holds the in-memory projection of one space's items, backed by
// the durable store. Every mutation writes durably first and touches memory
// only after the write succeeds, so a crash between the two leaves disk as
// ground truth and a later Load recovers correctly.
package list

import (
	"context"
	"time"

	"coopcart-cli/internal/model"
)

// Storage is the slice of the durable store the controller needs.
type Storage interface {
	GetItems(ctx context.Context, spaceID string) ([]model.Item, error)
	PutItem(ctx context.Context, it model.Item) error
	UpdateItem(ctx context.Context, id string, patch map[string]any) error
	DeleteItem(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, items []model.Item) error
}

type Controller struct {
	storage Storage
	spaceID string
	items   []model.Item
}

func NewController(storage Storage, spaceID string) *Controller {
	return &Controller{storage: storage, spaceID: spaceID, items: []model.Item{}}
}

// Load repopulates the in-memory items from the store.
func (c *Controller) Load(ctx context.Context) error {
	items, err := c.storage.GetItems(ctx, c.spaceID)
	if err != nil {
		return err
	}
	c.items = items
	return nil
}

// Items returns the current projection. Callers must not mutate the slice.
func (c *Controller) Items() []model.Item {
	return c.items
}

func (c *Controller) Find(id string) (model.Item, bool) {
	for _, it := range c.items {
		if it.ID == id {
			return it, true
		}
	}
	return model.Item{}, false
}

// Add writes the item durably, then appends it to memory.
func (c *Controller) Add(ctx context.Context, it model.Item) error {
	if err := c.storage.PutItem(ctx, it); err != nil {
		return err
	}
	c.items = append(c.items, it)
	return nil
}

// Update applies a partial patch durably, then mirrors it in memory by
// re-reading nothing: the patched fields are applied to the cached copy.
func (c *Controller) Update(ctx context.Context, id string, patch map[string]any) error {
	if err := c.storage.UpdateItem(ctx, id, patch); err != nil {
		return err
	}
	for i := range c.items {
		if c.items[i].ID == id {
			applyPatch(&c.items[i], patch)
			break
		}
	}
	return nil
}

// Toggle flips an item's checked flag and bumps updatedAt.
func (c *Controller) Toggle(ctx context.Context, id string) error {
	it, ok := c.Find(id)
	if !ok {
		// Let the store report the canonical not-found error.
		return c.storage.UpdateItem(ctx, id, map[string]any{})
	}
	return c.Update(ctx, id, map[string]any{
		"checked":   !it.Checked,
		"updatedAt": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (c *Controller) Remove(ctx context.Context, id string) error {
	if err := c.storage.DeleteItem(ctx, id); err != nil {
		return err
	}
	kept := c.items[:0]
	for _, it := range c.items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	c.items = kept
	return nil
}

// ReplaceAll adopts an authoritative server snapshot: durable replace first,
// then the in-memory set. The server's item model carries no spaceId, so the
// controller's space is stamped on before persisting; otherwise the next
// space-filtered Load would miss every adopted item.
func (c *Controller) ReplaceAll(ctx context.Context, items []model.Item) error {
	stamped := make([]model.Item, len(items))
	for i, it := range items {
		it.SpaceID = c.spaceID
		stamped[i] = it
	}
	if err := c.storage.ReplaceAll(ctx, stamped); err != nil {
		return err
	}
	c.items = stamped
	return nil
}

// Refresh re-reads from the store. Used after destructive clears to keep the
// projection truthful.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.Load(ctx)
}

func applyPatch(it *model.Item, patch map[string]any) {
	for k, v := range patch {
		switch k {
		case "name":
			if s, ok := v.(string); ok {
				it.Name = s
			}
		case "category":
			if s, ok := v.(string); ok {
				it.Category = s
			}
		case "notes":
			if s, ok := v.(string); ok {
				it.Notes = &s
			}
		case "unit":
			if s, ok := v.(string); ok {
				it.Unit = &s
			}
		case "qty":
			switch n := v.(type) {
			case float64:
				it.Qty = &n
			case int:
				f := float64(n)
				it.Qty = &f
			}
		case "checked":
			if b, ok := v.(bool); ok {
				it.Checked = b
			}
		case "updatedAt":
			if s, ok := v.(string); ok {
				if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
					it.UpdatedAt = model.NewTime(ts)
				}
			}
		}
	}
}
