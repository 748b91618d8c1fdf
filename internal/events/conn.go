package events

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/duocall/backend/internal/log"
)

type handlerFunc[T any] func(context.Context, *connImpl[T], *Envelope)

type connImpl[T any] struct {
	stream   ObjectStream
	cctx     ConnContext[T]
	handler  handlerFunc[T]
	sendLock sync.Mutex
	closed   atomic.Bool
	logger   *log.Logger
}

func newConn[T any](
	stream ObjectStream,
	v *T,
	handler handlerFunc[T],
	logger *log.Logger,
) *connImpl[T] {
	c := &connImpl[T]{
		stream:  stream,
		handler: handler,
		logger:  logger,
	}
	c.cctx = NewContext[T](c, v)
	return c
}

func (c *connImpl[T]) Open(ctx context.Context) error {
	if err := c.stream.Open(ctx); err != nil {
		return err
	}

	go c.readLoop(ctx)
	return nil
}

func (c *connImpl[T]) Close() error {
	return c.close(nil)
}

func (c *connImpl[T]) Context() ConnContext[T] {
	return c.cctx
}

func (c *connImpl[T]) Emit(ctx context.Context, event string, data any) error {
	env, err := newEnvelope(event, data)
	if err != nil {
		return err
	}
	return c.send(ctx, env)
}

func (c *connImpl[T]) send(ctx context.Context, env *Envelope) error {
	// not allow concurrent sends
	c.sendLock.Lock()
	defer c.sendLock.Unlock()

	if c.closed.Load() {
		return ErrClosed
	}
	return c.stream.Write(ctx, env)
}

func (c *connImpl[T]) close(err error) error {
	if !c.closed.CompareAndSwap(false, true) {
		// already closed
		return ErrClosed
	}

	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		c.logger.Debug("connection closed with error", log.Error(err))
	}

	return c.stream.Close()
}

func (c *connImpl[T]) readLoop(ctx context.Context) {
	for {
		var env Envelope
		if err := c.stream.Read(ctx, &env); err != nil {
			_ = c.close(err)
			return
		}

		if env.Event == "" {
			c.logger.Warn("ignore message without event name")
			continue
		}
		c.handler(ctx, c, &env)
	}
}
