package model

import (
	"encoding/json"
	"time"
)

// DefaultSpaceID is the only space the product currently uses. The data model
// supports more, but rooms are created with exactly this one.
const DefaultSpaceID = "default"

// DefaultCategory is the sentinel category for items the parser (or the user)
// did not classify.
const DefaultCategory = "Other"

// DefaultCategoryOrder matches the server's category order for a fresh room.
var DefaultCategoryOrder = []string{
	"Dairy & Eggs", "Produce", "Meat & Seafood", "Pantry",
	"Frozen", "Beverages", "Bakery", "Other",
}

// Time is a wire-tolerant timestamp. The server emits naive ISO 8601 with no
// UTC offset; this client emits RFC 3339. Both forms decode; naive values are
// taken as UTC.
type Time struct {
	time.Time
}

func NewTime(t time.Time) Time {
	return Time{Time: t.UTC()}
}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Time) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = ts
		return nil
	}
	ts, err := time.Parse("2006-01-02T15:04:05.999999999", s)
	if err != nil {
		return err
	}
	t.Time = ts.UTC()
	return nil
}

// Item is one grocery entry. IDs are client-generated and immutable; JSON
// field names are the wire format shared with the server.
type Item struct {
	ID        string   `json:"id"`
	SpaceID   string   `json:"spaceId,omitempty"`
	RawText   *string  `json:"rawText,omitempty"`
	Name      string   `json:"name"`
	Qty       *float64 `json:"qty,omitempty"`
	Unit      *string  `json:"unit,omitempty"`
	Notes     *string  `json:"notes,omitempty"`
	Category  string   `json:"category"`
	CreatedAt Time     `json:"createdAt"`
	UpdatedAt Time     `json:"updatedAt"`
	Checked   bool     `json:"checked"`
}

// List is the server's versioned view of one space's items.
type List struct {
	ListID  string `json:"listId"`
	SpaceID string `json:"spaceId"`
	Version int64  `json:"version"`
	Items   []Item `json:"items"`
}

type Space struct {
	SpaceID       string   `json:"spaceId"`
	Name          string   `json:"name"`
	CategoryOrder []string `json:"categoryOrder"`
}

// Room is a sharing scope identified by an opaque code. The pin, when set, is
// an opaque credential; the client never interprets it.
type Room struct {
	RoomCode string  `json:"roomCode"`
	Pin      *string `json:"pin,omitempty"`
	Spaces   []Space `json:"spaces"`
}

// CategoryOrder returns the first space's category order, or the default.
func (r *Room) CategoryOrder() []string {
	if r != nil && len(r.Spaces) > 0 && len(r.Spaces[0].CategoryOrder) > 0 {
		return r.Spaces[0].CategoryOrder
	}
	return DefaultCategoryOrder
}

// OpKind identifies one kind of not-yet-synced local mutation.
type OpKind string

const (
	OpAddItem    OpKind = "add_item"
	OpUpdateItem OpKind = "update_item"
	OpToggleItem OpKind = "toggle_item"
	OpRemoveItem OpKind = "remove_item"
)

// OpData is the payload of a pending operation. Exactly one shape is used per
// kind: add carries Item; update carries ID+Patch; toggle/remove carry ID.
type OpData struct {
	Item  *Item          `json:"item,omitempty"`
	ID    string         `json:"id,omitempty"`
	Patch map[string]any `json:"patch,omitempty"`
}

// PendingOp is a durably queued local mutation awaiting server acknowledgment.
// Ops are appended in wall-clock order and read back in that same order; an op
// is only ever removed as part of its whole batch.
type PendingOp struct {
	ID        string `json:"id"`
	Type      OpKind `json:"type"`
	Data      OpData `json:"data"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

// SyncStatus is the per-session sync state. It is never persisted; every
// process starts at idle.
type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncSyncing SyncStatus = "syncing"
	SyncOK      SyncStatus = "ok"
	SyncError   SyncStatus = "error"
)

// Session is the durable room binding. It lives outside the main store so
// that clearing items and pending ops never loses the binding, and leaving a
// room clears the binding without touching anything else.
type Session struct {
	Room     Room      `json:"room"`
	SpaceID  string    `json:"spaceId"`
	Version  int64     `json:"version"`
	JoinedAt time.Time `json:"joinedAt"`
}
