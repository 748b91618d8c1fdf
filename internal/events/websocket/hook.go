package websocket

import (
	"net/http"

	"github.com/duocall/backend/internal/events"
)

// ConnectionHooks allows customizing connection lifecycle behavior
type ConnectionHooks[T any] interface {
	// OnVerify is called before upgrading to WebSocket.
	// Return false to reject the connection.
	OnVerify(r *http.Request) (*T, bool, error)

	// OnConnect is called after the WebSocket connection is established
	OnConnect(cctx events.ConnContext[T])

	// OnDisconnect is called when the WebSocket connection is closed
	OnDisconnect(cctx events.ConnContext[T], closeCode int)
}

// defaultHooks provides no-op implementations for ConnectionHooks.
// Embed this in a custom hooks struct to only override methods you need.
type defaultHooks[T any] struct{}

func (h *defaultHooks[T]) OnVerify(*http.Request) (*T, bool, error) {
	return new(T), true, nil
}

func (h *defaultHooks[T]) OnConnect(events.ConnContext[T]) {}

func (h *defaultHooks[T]) OnDisconnect(events.ConnContext[T], int) {}
