package api

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind is the structured classification of a gateway failure. Consumers
// switch on Kind; the server's message text is inspected exactly once, here.
type ErrorKind string

const (
	// KindNetwork: the request never produced an HTTP response.
	KindNetwork ErrorKind = "network"
	// KindSpaceNotFound: the bound space no longer exists server-side,
	// the usual signature of an expired room.
	KindSpaceNotFound ErrorKind = "space_not_found"
	// KindRoomNotFound: the room code is unknown to the server.
	KindRoomNotFound ErrorKind = "room_not_found"
	// KindGeneric: any other application-level failure.
	KindGeneric ErrorKind = "generic"
)

// Error is a distinguishable gateway failure with an HTTP-status-like code
// and the server's message.
type Error struct {
	Status  int
	Message string
	Kind    ErrorKind
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("api: network error: %s", e.Message)
	}
	return fmt.Sprintf("api: HTTP %d: %s", e.Status, e.Message)
}

func classify(status int, body string) ErrorKind {
	if status == 404 {
		// FastAPI wraps the detail string, so substring-match the body.
		if strings.Contains(body, "Space not found") {
			return KindSpaceNotFound
		}
		if strings.Contains(body, "Room not found") {
			return KindRoomNotFound
		}
	}
	return KindGeneric
}

// IsSpaceNotFound reports whether err is a gateway error classified as the
// bound space having expired server-side.
func IsSpaceNotFound(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == KindSpaceNotFound
}

// IsNetwork reports whether err is a transport-level gateway failure.
func IsNetwork(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == KindNetwork
}
