package events

import (
	"context"
	"encoding/json"
	"io"
)

// Handler dispatches inbound events to registered handlers.
type Handler[T any] interface {
	pureHandler[T]
	// all connections created by this handler share the same event handlers (Def)
	NewConn(stream ObjectStream, v *T) Conn[T]
}

type Conn[T any] interface {
	// Emit sends a server-initiated event to the peer. Fire-and-forget:
	// there is no reply on this protocol.
	Emit(ctx context.Context, event string, data any) error
	Open(ctx context.Context) error
	Context() ConnContext[T]
	io.Closer
}

type pureHandler[T any] interface {
	Def(event string, handler EventHandler[T])
}

// EventHandler handles one inbound event.
// The connection context is shared across all events on a connection.
// A returned error is reported to the sender as a system error event.
type EventHandler[T any] func(cctx ConnContext[T], data *json.RawMessage) error

// ConnContext carries per-connection state of type T.
type ConnContext[T any] interface {
	Get() *T
	Set(value *T)
	Conn() Conn[T]
}

type ObjectStream interface {
	Open(ctx context.Context) error
	Read(ctx context.Context, v any) error
	Write(ctx context.Context, obj any) error
	io.Closer
}
