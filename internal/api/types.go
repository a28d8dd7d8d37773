package api

import "coopcart-cli/internal/model"

type CreateRoomRequest struct {
	Pin *string `json:"pin,omitempty"`
}

type CreateRoomResponse struct {
	RoomCode string     `json:"roomCode"`
	Room     model.Room `json:"room"`
}

type JoinRoomRequest struct {
	RoomCode string  `json:"roomCode"`
	Pin      *string `json:"pin,omitempty"`
}

// JoinRoomResponse carries application-level failure in Success/Message; a
// false Success is not a transport error.
type JoinRoomResponse struct {
	Success bool        `json:"success"`
	Room    *model.Room `json:"room,omitempty"`
	Message string      `json:"message,omitempty"`
}

type ParseRequest struct {
	Text string `json:"text"`
}

type ParseResponse struct {
	Items []model.Item `json:"items"`
}

// ClientOp is the wire projection of one pending operation: the op kind plus
// the payload fields flattened alongside it.
type ClientOp struct {
	Type model.OpKind `json:"type"`

	Item  *model.Item    `json:"item,omitempty"`
	ID    string         `json:"id,omitempty"`
	Patch map[string]any `json:"patch,omitempty"`
}

// ProjectOp flattens a durable pending op into its wire form.
func ProjectOp(op model.PendingOp) ClientOp {
	return ClientOp{
		Type:  op.Type,
		Item:  op.Data.Item,
		ID:    op.Data.ID,
		Patch: op.Data.Patch,
	}
}

type MergeRequest struct {
	RoomCode      string     `json:"roomCode"`
	SpaceID       string     `json:"spaceId"`
	ClientVersion int64      `json:"clientVersion"`
	ClientOps     []ClientOp `json:"clientOps"`
}

// MergeResponse is also the shape of a read-only list pull.
type MergeResponse struct {
	ServerVersion int64      `json:"serverVersion"`
	List          model.List `json:"list"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Rooms  int    `json:"rooms"`
	Lists  int    `json:"lists"`
}
