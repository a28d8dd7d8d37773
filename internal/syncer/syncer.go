// Package syncer drives the push/pull/merge protocol and owns the sync status
// state machine (idle -> syncing -> ok|error -> idle).
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"coopcart-cli/internal/api"
	"coopcart-cli/internal/list"
	"coopcart-cli/internal/model"
	"coopcart-cli/internal/queue"
)

// ErrSyncInFlight is returned when a sync round is requested while another is
// still running. Rounds never run concurrently: overlapping pushes could
// double-count or reorder the pending-op batch.
var ErrSyncInFlight = errors.New("sync already in flight")

// Gateway is the slice of the remote gateway a sync round needs.
type Gateway interface {
	GetList(ctx context.Context, spaceID string) (*api.MergeResponse, error)
	MergeList(ctx context.Context, req api.MergeRequest) (*api.MergeResponse, error)
}

// Session is the slice of the session manager a sync round needs.
type Session interface {
	Current() (model.Session, bool)
	Generation() uint64
	SetVersion(v int64) error
}

// Result reports one completed sync round. A nil Result with a nil error
// means there was nothing to do (server current, no pending ops), a signal
// the presentation layer distinguishes from "synced".
type Result struct {
	ServerVersion int64
	List          model.List
	// Pushed is how many pending ops the server acknowledged.
	Pushed int
	// Discarded is how many pending ops were dropped because the server had
	// moved ahead. Coarse policy: pulled state wins, local edits are lost.
	Discarded int
}

type Controller struct {
	mu      sync.Mutex
	syncing bool
	status  model.SyncStatus
	lastErr error

	gw      Gateway
	queue   *queue.Queue
	list    *list.Controller
	session Session
	logger  *slog.Logger
}

func NewController(gw Gateway, q *queue.Queue, lc *list.Controller, sess Session, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		status:  model.SyncIdle,
		gw:      gw,
		queue:   q,
		list:    lc,
		session: sess,
		logger:  logger,
	}
}

func (c *Controller) Status() model.SyncStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Err returns the classified failure of the last round, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Reset acknowledges the last outcome and returns the machine to idle.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = model.SyncIdle
	c.lastErr = nil
}

// RoomExpired reports whether err indicates the bound space no longer exists
// server-side. The controller only classifies; tearing down the session and
// creating a fresh room is the consumer's move.
func RoomExpired(err error) bool {
	return api.IsSpaceNotFound(err)
}

// Sync runs one round: pull authoritative state, resolve divergence, push the
// pending batch if the server is current. On any failure the queue and the
// in-memory items are left untouched, so a retry reproduces the same request.
func (c *Controller) Sync(ctx context.Context) (*Result, error) {
	sess, bound := c.session.Current()
	if !bound {
		return nil, nil
	}

	c.mu.Lock()
	if c.syncing {
		c.mu.Unlock()
		return nil, ErrSyncInFlight
	}
	c.syncing = true
	c.status = model.SyncSyncing
	c.lastErr = nil
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.syncing = false
		c.mu.Unlock()
	}()

	// Captured once per round; a room switch mid-flight bumps it, and a
	// stale round must discard its result rather than apply it.
	gen := c.session.Generation()

	pulled, err := c.gw.GetList(ctx, sess.SpaceID)
	if err != nil {
		return nil, c.fail(err)
	}

	if pulled.ServerVersion > sess.Version {
		return c.adoptPulled(ctx, sess, gen, pulled)
	}

	ops, err := c.queue.Snapshot(ctx)
	if err != nil {
		return nil, c.fail(err)
	}
	if len(ops) == 0 {
		// Server current, nothing queued: nothing to do.
		c.setStatus(model.SyncIdle)
		return nil, nil
	}

	clientOps := make([]api.ClientOp, 0, len(ops))
	for _, op := range ops {
		clientOps = append(clientOps, api.ProjectOp(op))
	}
	resp, err := c.gw.MergeList(ctx, api.MergeRequest{
		RoomCode:      sess.Room.RoomCode,
		SpaceID:       sess.SpaceID,
		ClientVersion: sess.Version,
		ClientOps:     clientOps,
	})
	if err != nil {
		return nil, c.fail(err)
	}

	if c.session.Generation() != gen {
		return c.discardStale(gen)
	}
	if err := c.queue.Clear(ctx); err != nil {
		return nil, c.fail(err)
	}
	if err := c.commit(ctx, resp); err != nil {
		return nil, c.fail(err)
	}
	c.setStatus(model.SyncOK)
	return &Result{ServerVersion: resp.ServerVersion, List: resp.List, Pushed: len(ops)}, nil
}

// adoptPulled handles divergence: the server has moved ahead, so the pulled
// state wins. Any queued local mutations are dropped; the loss is surfaced
// as a warning, never as an error.
func (c *Controller) adoptPulled(ctx context.Context, sess model.Session, gen uint64, pulled *api.MergeResponse) (*Result, error) {
	ops, err := c.queue.Snapshot(ctx)
	if err != nil {
		return nil, c.fail(err)
	}
	if c.session.Generation() != gen {
		return c.discardStale(gen)
	}
	discarded := len(ops)
	if discarded > 0 {
		if err := c.queue.Clear(ctx); err != nil {
			return nil, c.fail(err)
		}
		c.logger.Warn("server moved ahead; discarding pending local ops",
			"discarded", discarded,
			"clientVersion", sess.Version,
			"serverVersion", pulled.ServerVersion)
	}
	if err := c.commit(ctx, pulled); err != nil {
		return nil, c.fail(err)
	}
	c.setStatus(model.SyncOK)
	return &Result{ServerVersion: pulled.ServerVersion, List: pulled.List, Discarded: discarded}, nil
}

func (c *Controller) commit(ctx context.Context, resp *api.MergeResponse) error {
	if err := c.list.ReplaceAll(ctx, resp.List.Items); err != nil {
		return err
	}
	return c.session.SetVersion(resp.ServerVersion)
}

func (c *Controller) discardStale(gen uint64) (*Result, error) {
	c.logger.Debug("discarding superseded sync result", "generation", gen)
	c.setStatus(model.SyncIdle)
	return nil, nil
}

func (c *Controller) setStatus(st model.SyncStatus) {
	c.mu.Lock()
	c.status = st
	c.mu.Unlock()
}

func (c *Controller) fail(err error) error {
	c.mu.Lock()
	c.status = model.SyncError
	c.lastErr = err
	c.mu.Unlock()
	return err
}
