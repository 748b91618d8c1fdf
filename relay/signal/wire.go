package signal

import (
	"golang.org/x/time/rate"

	"github.com/duocall/backend/presence"
)

// ConnState is the per-connection state shared across events.
type ConnState struct {
	ConnID  string
	limiter *rate.Limiter
}

type joinRequest struct {
	Room     string `json:"room" validate:"required,roomname"`
	UserID   string `json:"userId"`
	DeviceID string `json:"deviceId"`
	Name     string `json:"name"`
}

type leaveRequest struct {
	Room string `json:"room"`
}

type userJoinedPayload struct {
	Room          string `json:"room"`
	UserID        string `json:"userId"`
	Name          string `json:"name"`
	DeviceID      string `json:"deviceId"`
	AnotherDevice bool   `json:"anotherDevice"`
}

type userLeftPayload struct {
	Room       string `json:"room"`
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	DeviceID   string `json:"deviceId"`
	LastDevice bool   `json:"lastDevice"`
	Reason     string `json:"reason"`
}

type rosterPayload struct {
	Room  string                `json:"room"`
	Users []presence.RosterUser `json:"users"`
}
