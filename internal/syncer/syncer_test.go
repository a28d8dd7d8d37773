package syncer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"coopcart-cli/internal/api"
	"coopcart-cli/internal/list"
	"coopcart-cli/internal/model"
	"coopcart-cli/internal/queue"
	"coopcart-cli/internal/store"
)

type fakeSession struct {
	mu    sync.Mutex
	sess  model.Session
	bound bool
	gen   uint64
}

func (s *fakeSession) Current() (model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess, s.bound
}

func (s *fakeSession) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *fakeSession) SetVersion(v int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v >= s.sess.Version {
		s.sess.Version = v
	}
	return nil
}

func (s *fakeSession) bumpGen() {
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()
}

type fakeGateway struct {
	getResp   *api.MergeResponse
	getErr    error
	mergeResp *api.MergeResponse
	mergeErr  error

	mergeCalls int
	lastMerge  api.MergeRequest

	// Hooks fired on entry, before returning the canned response.
	onGet   func()
	onMerge func()
}

func (g *fakeGateway) GetList(ctx context.Context, spaceID string) (*api.MergeResponse, error) {
	if g.onGet != nil {
		g.onGet()
	}
	return g.getResp, g.getErr
}

func (g *fakeGateway) MergeList(ctx context.Context, req api.MergeRequest) (*api.MergeResponse, error) {
	g.mergeCalls++
	g.lastMerge = req
	if g.onMerge != nil {
		g.onMerge()
	}
	return g.mergeResp, g.mergeErr
}

type fixture struct {
	gw    *fakeGateway
	queue *queue.Queue
	list  *list.Controller
	sess  *fakeSession
	ctrl  *Controller
	st    store.Store
}

func newFixture(t *testing.T, version int64) *fixture {
	t.Helper()
	st := store.Store{Dir: t.TempDir()}
	n := 0
	q := queue.New(st, func() string {
		n++
		return string(rune('a' + n - 1))
	})
	lc := list.NewController(st, model.DefaultSpaceID)
	if err := lc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	sess := &fakeSession{
		sess: model.Session{
			Room:    model.Room{RoomCode: "ABC123"},
			SpaceID: model.DefaultSpaceID,
			Version: version,
		},
		bound: true,
	}
	gw := &fakeGateway{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		gw:    gw,
		queue: q,
		list:  lc,
		sess:  sess,
		ctrl:  NewController(gw, q, lc, sess, logger),
		st:    st,
	}
}

func serverList(version int64, items ...model.Item) *api.MergeResponse {
	return &api.MergeResponse{
		ServerVersion: version,
		List: model.List{
			ListID:  model.DefaultSpaceID,
			SpaceID: model.DefaultSpaceID,
			Version: version,
			Items:   items,
		},
	}
}

func TestSync_UnboundIsNoOp(t *testing.T) {
	f := newFixture(t, 0)
	f.sess.bound = false

	res, err := f.ctrl.Sync(context.Background())
	if err != nil || res != nil {
		t.Fatalf("expected nil,nil, got %+v, %v", res, err)
	}
	if f.ctrl.Status() != model.SyncIdle {
		t.Fatalf("status: %s", f.ctrl.Status())
	}
}

func TestSync_PushSuccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2)

	it := model.Item{ID: "i1", SpaceID: model.DefaultSpaceID, Name: "milk", Category: "Other"}
	if err := f.list.Add(ctx, it); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := f.queue.Enqueue(ctx, model.OpAddItem, model.OpData{Item: &it}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	f.gw.getResp = serverList(2)
	f.gw.mergeResp = serverList(3, it)

	res, err := f.ctrl.Sync(ctx)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res == nil || res.ServerVersion != 3 || res.Pushed != 1 || res.Discarded != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if f.ctrl.Status() != model.SyncOK {
		t.Fatalf("status: %s", f.ctrl.Status())
	}

	if f.gw.lastMerge.ClientVersion != 2 || f.gw.lastMerge.RoomCode != "ABC123" {
		t.Fatalf("merge request: %+v", f.gw.lastMerge)
	}
	if len(f.gw.lastMerge.ClientOps) != 1 || f.gw.lastMerge.ClientOps[0].Type != model.OpAddItem {
		t.Fatalf("clientOps: %+v", f.gw.lastMerge.ClientOps)
	}

	if n, _ := f.queue.Len(ctx); n != 0 {
		t.Fatalf("queue not cleared: %d", n)
	}
	if got, _ := f.sess.Current(); got.Version != 3 {
		t.Fatalf("version not advanced: %d", got.Version)
	}
	if len(f.list.Items()) != 1 || f.list.Items()[0].ID != "i1" {
		t.Fatalf("items not adopted: %+v", f.list.Items())
	}
}

func TestSync_DivergenceDiscardsPendingOps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)

	local := model.Item{ID: "local", SpaceID: model.DefaultSpaceID, Name: "draft", Category: "Other"}
	if err := f.list.Add(ctx, local); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := f.queue.Enqueue(ctx, model.OpAddItem, model.OpData{Item: &local}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	remote := model.Item{ID: "remote", SpaceID: model.DefaultSpaceID, Name: "eggs", Category: "Other"}
	f.gw.getResp = serverList(5, remote)

	res, err := f.ctrl.Sync(ctx)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res == nil || res.ServerVersion != 5 || res.Discarded != 1 || res.Pushed != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if f.gw.mergeCalls != 0 {
		t.Fatalf("merge should not run on divergence")
	}
	if n, _ := f.queue.Len(ctx); n != 0 {
		t.Fatalf("queue should be dropped: %d pending", n)
	}
	items := f.list.Items()
	if len(items) != 1 || items[0].ID != "remote" {
		t.Fatalf("pulled state should win: %+v", items)
	}
	if got, _ := f.sess.Current(); got.Version != 5 {
		t.Fatalf("version: %d", got.Version)
	}
}

func TestSync_NothingToDo(t *testing.T) {
	f := newFixture(t, 3)
	f.gw.getResp = serverList(3)

	res, err := f.ctrl.Sync(context.Background())
	if err != nil || res != nil {
		t.Fatalf("expected nil,nil, got %+v, %v", res, err)
	}
	if f.ctrl.Status() != model.SyncIdle {
		t.Fatalf("status: %s", f.ctrl.Status())
	}
}

func TestSync_PullFailureRetainsState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)

	it := model.Item{ID: "i1", SpaceID: model.DefaultSpaceID, Name: "milk", Category: "Other"}
	if err := f.list.Add(ctx, it); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := f.queue.Enqueue(ctx, model.OpAddItem, model.OpData{Item: &it}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	netErr := &api.Error{Status: 0, Message: "connection refused", Kind: api.KindNetwork}
	f.gw.getErr = netErr

	res, err := f.ctrl.Sync(ctx)
	if res != nil {
		t.Fatalf("expected nil result, got %+v", res)
	}
	if !api.IsNetwork(err) {
		t.Fatalf("error not surfaced: %v", err)
	}
	if f.ctrl.Status() != model.SyncError {
		t.Fatalf("status: %s", f.ctrl.Status())
	}
	if !api.IsNetwork(f.ctrl.Err()) {
		t.Fatalf("lastErr: %v", f.ctrl.Err())
	}

	// Queue and items untouched: a retry reproduces the same request.
	if n, _ := f.queue.Len(ctx); n != 1 {
		t.Fatalf("queue mutated on failure: %d", n)
	}
	if len(f.list.Items()) != 1 {
		t.Fatalf("items mutated on failure: %+v", f.list.Items())
	}
	if got, _ := f.sess.Current(); got.Version != 1 {
		t.Fatalf("version mutated on failure: %d", got.Version)
	}

	f.ctrl.Reset()
	if f.ctrl.Status() != model.SyncIdle || f.ctrl.Err() != nil {
		t.Fatalf("reset did not return to idle")
	}
}

func TestSync_RejectsOverlappingRounds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.gw.onGet = func() {
		close(entered)
		<-release
	}
	f.gw.getResp = serverList(0)

	done := make(chan error, 1)
	go func() {
		_, err := f.ctrl.Sync(ctx)
		done <- err
	}()

	<-entered
	if _, err := f.ctrl.Sync(ctx); !errors.Is(err, ErrSyncInFlight) {
		t.Fatalf("expected ErrSyncInFlight, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first round: %v", err)
	}
}

func TestSync_StaleGenerationDiscardsResult(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)

	it := model.Item{ID: "i1", SpaceID: model.DefaultSpaceID, Name: "milk", Category: "Other"}
	if _, err := f.queue.Enqueue(ctx, model.OpAddItem, model.OpData{Item: &it}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	f.gw.getResp = serverList(1)
	f.gw.mergeResp = serverList(2, it)
	// A room switch lands while the merge request is in flight.
	f.gw.onMerge = func() { f.sess.bumpGen() }

	res, err := f.ctrl.Sync(ctx)
	if err != nil || res != nil {
		t.Fatalf("stale round must be discarded, got %+v, %v", res, err)
	}
	if f.ctrl.Status() != model.SyncIdle {
		t.Fatalf("status: %s", f.ctrl.Status())
	}
	if got, _ := f.sess.Current(); got.Version != 1 {
		t.Fatalf("stale result committed version: %d", got.Version)
	}
	if len(f.list.Items()) != 0 {
		t.Fatalf("stale result committed items: %+v", f.list.Items())
	}
	if n, _ := f.queue.Len(ctx); n != 1 {
		t.Fatalf("stale round consumed the queue: %d", n)
	}
}

func TestRoomExpired(t *testing.T) {
	if !RoomExpired(&api.Error{Status: 404, Message: "Space not found", Kind: api.KindSpaceNotFound}) {
		t.Fatalf("space-not-found should read as expired")
	}
	if RoomExpired(&api.Error{Status: 0, Kind: api.KindNetwork}) {
		t.Fatalf("network error is not expiration")
	}
	if RoomExpired(nil) {
		t.Fatalf("nil is not expiration")
	}
}
