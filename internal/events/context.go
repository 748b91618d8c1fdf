package events

import "sync/atomic"

func NewContext[T any](conn Conn[T], v *T) ConnContext[T] {
	c := &contextImpl[T]{
		conn: conn,
	}
	c.v.Store(v)
	return c
}

// contextImpl holds connection-level state shared across all events on a connection
type contextImpl[T any] struct {
	conn Conn[T]
	v    atomic.Pointer[T]
}

func (m *contextImpl[T]) Set(value *T) {
	m.v.Store(value)
}

func (m *contextImpl[T]) Get() *T {
	return m.v.Load()
}

func (m *contextImpl[T]) Conn() Conn[T] {
	return m.conn
}
