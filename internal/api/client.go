package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL matches the reference server's local address.
const DefaultBaseURL = "http://127.0.0.1:8000"

// Client is the typed gateway to the sync server. All failures surface as
// *Error; the caller owns retry policy.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &Error{Status: 0, Message: err.Error(), Kind: KindNetwork}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Status: resp.StatusCode, Message: err.Error(), Kind: KindNetwork}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return &Error{Status: resp.StatusCode, Message: msg, Kind: classify(resp.StatusCode, msg)}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) CreateRoom(ctx context.Context, pin *string) (*CreateRoomResponse, error) {
	var out CreateRoomResponse
	if err := c.do(ctx, http.MethodPost, "/api/room/create", CreateRoomRequest{Pin: pin}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) JoinRoom(ctx context.Context, roomCode string, pin *string) (*JoinRoomResponse, error) {
	var out JoinRoomResponse
	if err := c.do(ctx, http.MethodPost, "/api/room/join", JoinRoomRequest{RoomCode: roomCode, Pin: pin}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ParseText sends freeform input to the server-side parser. The parser itself
// is an external collaborator; the client only speaks this contract.
func (c *Client) ParseText(ctx context.Context, text string) (*ParseResponse, error) {
	var out ParseResponse
	if err := c.do(ctx, http.MethodPost, "/api/parse", ParseRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MergeList(ctx context.Context, req MergeRequest) (*MergeResponse, error) {
	var out MergeResponse
	if err := c.do(ctx, http.MethodPost, "/api/list/merge", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetList pulls the authoritative list state for one space.
func (c *Client) GetList(ctx context.Context, spaceID string) (*MergeResponse, error) {
	var out MergeResponse
	path := "/api/list/" + url.PathEscape(spaceID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
