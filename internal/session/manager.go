// Package session owns room identity: the durable binding, the purge-before-
// bind discipline on room switches, and the generation counter that lets
// in-flight sync rounds detect they have been superseded.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"coopcart-cli/internal/api"
	"coopcart-cli/internal/list"
	"coopcart-cli/internal/model"
	"coopcart-cli/internal/queue"
	"coopcart-cli/internal/store"
)

// Gateway is the slice of the remote gateway the manager needs.
type Gateway interface {
	CreateRoom(ctx context.Context, pin *string) (*api.CreateRoomResponse, error)
	JoinRoom(ctx context.Context, roomCode string, pin *string) (*api.JoinRoomResponse, error)
}

// JoinRefusedError is an application-level join failure (bad code, bad PIN).
// The session binding is unchanged when this is returned.
type JoinRefusedError struct {
	Message string
}

func (e JoinRefusedError) Error() string {
	if e.Message == "" {
		return "join refused"
	}
	return fmt.Sprintf("join refused: %s", e.Message)
}

type Manager struct {
	mu  sync.Mutex
	gen uint64
	cur *model.Session

	spaceID string
	st      store.Store
	reg     store.SessionRegister
	queue   *queue.Queue
	list    *list.Controller
	gw      Gateway
}

func NewManager(st store.Store, reg store.SessionRegister, q *queue.Queue, lc *list.Controller, gw Gateway, spaceID string) *Manager {
	return &Manager{spaceID: spaceID, st: st, reg: reg, queue: q, list: lc, gw: gw}
}

// Restore adopts a persisted binding without contacting the server. The first
// sync round validates it (and reports expiration if stale).
func (m *Manager) Restore() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok, err := m.reg.Load()
	if err != nil || !ok {
		return false, err
	}
	m.cur = &sess
	return true, nil
}

// Current returns the active session, if any.
func (m *Manager) Current() (model.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return model.Session{}, false
	}
	return *m.cur, true
}

// Generation increments on every purge. A sync round captures it at start and
// must see the same value before committing its result.
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// SetVersion persists the tracked list version. Versions never regress: a
// lower value than the current one is ignored.
func (m *Manager) SetVersion(v int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return fmt.Errorf("no active session")
	}
	if v < m.cur.Version {
		return nil
	}
	m.cur.Version = v
	return m.reg.Save(*m.cur)
}

// purge discards every item and pending op for the active space and refreshes
// the in-memory projection. It bumps the generation first so any in-flight
// sync round discards its result instead of resurrecting purged state.
func (m *Manager) purge(ctx context.Context) error {
	m.mu.Lock()
	m.gen++
	m.mu.Unlock()

	if err := m.st.ClearItems(ctx, m.spaceID); err != nil {
		return err
	}
	if err := m.queue.Clear(ctx); err != nil {
		return err
	}
	return m.list.Refresh(ctx)
}

func (m *Manager) bind(room model.Room) error {
	sess := model.Session{
		Room:     room,
		SpaceID:  m.spaceID,
		Version:  0,
		JoinedAt: time.Now().UTC(),
	}
	if err := m.reg.Save(sess); err != nil {
		return err
	}
	m.mu.Lock()
	m.cur = &sess
	m.mu.Unlock()
	return nil
}

// CreateRoom purges local state, creates a room server-side and binds it.
// The purge happens strictly before the network call: no item or pending op
// of a previous room may survive into the new one.
func (m *Manager) CreateRoom(ctx context.Context, pin *string) (*model.Room, error) {
	if err := m.purge(ctx); err != nil {
		return nil, err
	}
	resp, err := m.gw.CreateRoom(ctx, pin)
	if err != nil {
		return nil, err
	}
	if err := m.bind(resp.Room); err != nil {
		return nil, err
	}
	room := resp.Room
	return &room, nil
}

// JoinRoom follows the same purge-before-bind discipline. An application-level
// refusal returns JoinRefusedError and leaves the binding unchanged.
func (m *Manager) JoinRoom(ctx context.Context, roomCode string, pin *string) (*model.Room, error) {
	if err := m.purge(ctx); err != nil {
		return nil, err
	}
	resp, err := m.gw.JoinRoom(ctx, roomCode, pin)
	if err != nil {
		return nil, err
	}
	if !resp.Success || resp.Room == nil {
		return nil, JoinRefusedError{Message: resp.Message}
	}
	if err := m.bind(*resp.Room); err != nil {
		return nil, err
	}
	return resp.Room, nil
}

// LeaveRoom purges local state and clears the persisted binding.
func (m *Manager) LeaveRoom(ctx context.Context) error {
	if err := m.purge(ctx); err != nil {
		return err
	}
	if err := m.reg.Clear(); err != nil {
		return err
	}
	m.mu.Lock()
	m.cur = nil
	m.mu.Unlock()
	return nil
}
