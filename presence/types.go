package presence

import (
	"time"

	"github.com/duocall/backend/internal/errors"
)

const (
	CodeRoomFull errors.Code = "room_full"
)

// MaxUsersPerRoom is the pairwise session limit. Multiple devices of the
// same user count as one.
const MaxUsersPerRoom = 2

// Reason distinguishes an explicit leave from a transport loss in
// user_left notifications. Both converge on the same removal routine.
type Reason string

const (
	ReasonLeave      Reason = "leave"
	ReasonDisconnect Reason = "disconnect"
)

// Session is the per-connection join record. Immutable once created; a
// reconnect produces a new session rather than an update.
type Session struct {
	ConnID      string
	Room        string
	UserID      string
	DeviceID    string
	DisplayName string
	JoinedAt    time.Time
}

// RosterUser is one user's presence as seen by clients. Devices are
// sorted for deterministic output.
type RosterUser struct {
	UserID  string   `json:"userId"`
	Name    string   `json:"name"`
	Devices []string `json:"devices"`
}

// JoinResult carries everything the caller needs to notify the room,
// captured in the same critical section as the mutation.
type JoinResult struct {
	// Compat is set when the join carried no userId/deviceId and only
	// transport membership was recorded.
	Compat bool

	// AnotherDevice is true when the user was already present under a
	// different device.
	AnotherDevice bool

	Session    Session
	Roster     []RosterUser
	Recipients []string
}

// Departure describes the outcome of a leave or disconnect removal.
type Departure struct {
	Room     string
	UserID   string
	Name     string
	DeviceID string

	// LastDevice is true when the removed device was the user's final
	// one and the presence entry was deleted.
	LastDevice bool

	Reason Reason

	// Compat is set when the connection had transport membership but no
	// session (a compat-mode join).
	Compat bool

	Roster     []RosterUser
	Recipients []string
}
