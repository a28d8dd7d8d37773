package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coopcart-cli/internal/model"
)

func TestCreateRoom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/room/create" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req CreateRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Pin != nil {
			t.Errorf("expected nil pin, got %q", *req.Pin)
		}
		json.NewEncoder(w).Encode(CreateRoomResponse{
			RoomCode: "ABC123",
			Room:     model.Room{RoomCode: "ABC123"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.CreateRoom(context.Background(), nil)
	if err != nil {
		t.Fatalf("createRoom: %v", err)
	}
	if resp.RoomCode != "ABC123" || resp.Room.RoomCode != "ABC123" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestJoinRoom_RefusalIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req JoinRoomRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.RoomCode != "NOPE99" {
			t.Errorf("roomCode: got %q", req.RoomCode)
		}
		json.NewEncoder(w).Encode(JoinRoomResponse{Success: false, Message: "Invalid PIN"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.JoinRoom(context.Background(), "NOPE99", nil)
	if err != nil {
		t.Fatalf("joinRoom: %v", err)
	}
	if resp.Success || resp.Message != "Invalid PIN" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestMergeList_FlattensOps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/list/merge" {
			t.Errorf("path: %s", r.URL.Path)
		}
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode: %v", err)
		}
		ops, _ := raw["clientOps"].([]any)
		if len(ops) != 1 {
			t.Fatalf("expected 1 op, got %d", len(ops))
		}
		op := ops[0].(map[string]any)
		if op["type"] != "toggle_item" || op["id"] != "i1" {
			t.Errorf("op not flattened: %v", op)
		}
		if _, present := op["data"]; present {
			t.Errorf("op carries nested data: %v", op)
		}
		json.NewEncoder(w).Encode(MergeResponse{
			ServerVersion: 4,
			List:          model.List{ListID: "default", SpaceID: "default", Version: 4},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.MergeList(context.Background(), MergeRequest{
		RoomCode:      "ABC123",
		SpaceID:       "default",
		ClientVersion: 3,
		ClientOps: []ClientOp{ProjectOp(model.PendingOp{
			Type: model.OpToggleItem,
			Data: model.OpData{ID: "i1"},
		})},
	})
	if err != nil {
		t.Fatalf("mergeList: %v", err)
	}
	if resp.ServerVersion != 4 {
		t.Fatalf("serverVersion: got %d", resp.ServerVersion)
	}
}

func TestGetList_PathAndShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/list/default" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(MergeResponse{
			ServerVersion: 2,
			List: model.List{ListID: "default", SpaceID: "default", Version: 2, Items: []model.Item{
				{ID: "i1", SpaceID: "default", Name: "milk", Category: "Dairy & Eggs"},
			}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.GetList(context.Background(), "default")
	if err != nil {
		t.Fatalf("getList: %v", err)
	}
	if resp.ServerVersion != 2 || len(resp.List.Items) != 1 || resp.List.Items[0].Name != "milk" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestGetList_DecodesNaiveServerTimestamps(t *testing.T) {
	// The server serializes datetimes without a UTC offset; the client must
	// still decode the body.
	body := `{"serverVersion":3,"list":{"listId":"default","spaceId":"default","version":3,` +
		`"items":[{"id":"i1","name":"milk","category":"Other",` +
		`"createdAt":"2026-08-30T12:00:00.123456","updatedAt":"2026-08-30T12:00:00.123456","checked":false}]}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.GetList(context.Background(), "default")
	if err != nil {
		t.Fatalf("getList: %v", err)
	}
	it := resp.List.Items[0]
	want := time.Date(2026, 8, 30, 12, 0, 0, 123456000, time.UTC)
	if !it.CreatedAt.Equal(want) {
		t.Fatalf("createdAt: got %v want %v", it.CreatedAt, want)
	}
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		kind   ErrorKind
	}{
		{"space expired", 404, `{"detail":"Space not found"}`, KindSpaceNotFound},
		{"unknown room", 404, `{"detail":"Room not found"}`, KindRoomNotFound},
		{"other 404", 404, `{"detail":"no such page"}`, KindGeneric},
		{"server error", 500, "boom", KindGeneric},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL)
			_, err := c.GetList(context.Background(), "default")
			if err == nil {
				t.Fatalf("expected error")
			}
			ae, ok := err.(*Error)
			if !ok {
				t.Fatalf("expected *Error, got %T", err)
			}
			if ae.Kind != tc.kind || ae.Status != tc.status {
				t.Fatalf("got kind=%s status=%d, want kind=%s status=%d", ae.Kind, ae.Status, tc.kind, tc.status)
			}
		})
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(srv.URL)
	_, err := c.Health(context.Background())
	if !IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}
	if IsSpaceNotFound(err) {
		t.Fatalf("network error misclassified as space-not-found")
	}
}

func TestIsSpaceNotFound(t *testing.T) {
	err := &Error{Status: 404, Message: "Space not found", Kind: KindSpaceNotFound}
	if !IsSpaceNotFound(err) {
		t.Fatalf("direct error not recognized")
	}
	if IsSpaceNotFound(&Error{Status: 404, Kind: KindRoomNotFound}) {
		t.Fatalf("room-not-found misclassified")
	}
	if IsSpaceNotFound(nil) {
		t.Fatalf("nil misclassified")
	}
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c := NewClient("http://example.test/")
	if c.BaseURL != "http://example.test" {
		t.Fatalf("baseURL: %q", c.BaseURL)
	}
	if NewClient("").BaseURL != DefaultBaseURL {
		t.Fatalf("empty baseURL should fall back to default")
	}
}
