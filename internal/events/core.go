package events

import (
	"context"

	"github.com/duocall/backend/internal/errors"
	"github.com/duocall/backend/internal/log"
)

type handlerImpl[T any] struct {
	handlers map[string]EventHandler[T]
	logger   *log.Logger
}

// NewHandler creates an event dispatcher with the given logger
func NewHandler[T any](logger *log.Logger) Handler[T] {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &handlerImpl[T]{
		handlers: make(map[string]EventHandler[T]),
		logger:   logger,
	}
}

// Def registers an event handler. Registration happens before any
// connection is opened, so no locking is needed.
func (s *handlerImpl[T]) Def(event string, handler EventHandler[T]) {
	if _, ok := s.handlers[event]; ok {
		panic("event already defined: " + event)
	}
	s.handlers[event] = handler
}

func (s *handlerImpl[T]) NewConn(stream ObjectStream, v *T) Conn[T] {
	return newConn(stream, v, s.handle, s.logger)
}

func (s *handlerImpl[T]) handle(ctx context.Context, conn *connImpl[T], env *Envelope) {
	s.logger.Debug("Event received", log.String("event", env.Event))

	handler, ok := s.handlers[env.Event]
	if !ok {
		// the relay is content-agnostic; unknown events are dropped
		s.logger.Debug("No handler for event, dropped", log.String("event", env.Event))
		return
	}

	if err := handler(conn.cctx, env.Data); err != nil {
		s.fail(ctx, conn, env.Event, err)
	}
}

// fail reports a handler rejection to the sender only, as a system error event.
func (s *handlerImpl[T]) fail(ctx context.Context, conn *connImpl[T], event string, err error) {
	notice := SystemNotice{Level: "error", Message: "internal_error"}

	if evErr, ok := errors.As[*Error](err); ok && evErr != nil {
		notice.Message = (*evErr).Message
		s.logger.Info("Event rejected",
			log.String("event", event),
			log.String("reason", notice.Message))
	} else {
		// do not disclose internal error details to the client
		s.logger.Error("Event handler failed",
			log.String("event", event),
			log.Error(err))
	}

	if err := conn.Emit(ctx, EventSystem, notice); err != nil {
		s.logger.Error("Failed to send system error",
			log.String("event", event),
			log.Error(err))
	}
}
