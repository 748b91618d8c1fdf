package websocket

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/duocall/backend/internal/errors"
	"github.com/duocall/backend/internal/log"
)

const (
	ErrBufferFull errors.Code = "buffer_full"
)

const (
	pingInterval = 10 * time.Second
	pingTimeout  = 3 * time.Second
	writeTimeout = 3 * time.Second
	bufMessages  = 16
)

func newStream(conn *websocket.Conn, logger *log.Logger) *wsStream {
	return &wsStream{
		conn:   conn,
		chBuf:  make(chan func() error, bufMessages),
		logger: logger,
	}
}

// wsStream wraps a WebSocket connection to implement events.ObjectStream.
// Writes go through a bounded buffer drained by a single pump goroutine,
// so a stalled peer trips the buffer instead of blocking the caller.
type wsStream struct {
	conn  *websocket.Conn
	chBuf chan func() error

	connCtx   context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	logger    *log.Logger
}

// only a marshal error or a full buffer returns an error
func (ws *wsStream) Write(ctx context.Context, obj any) error {
	select {
	case <-ctx.Done():
		return net.ErrClosed
	default:
	}

	action := func() error {
		ctx, cancel := context.WithTimeout(ctx, writeTimeout)
		defer cancel()
		return wsjson.Write(ctx, ws.conn, obj)
	}

	select {
	case ws.chBuf <- action:
		return nil
	default:
		ws.close(ErrBufferFull)
		return ErrBufferFull
	}
}

func (ws *wsStream) Read(ctx context.Context, v any) error {
	// read loop shares the same read ctx; read failure closes the connection
	if err := wsjson.Read(ctx, ws.conn, v); err != nil {
		ws.close(err)
		return err
	}
	return nil
}

func (ws *wsStream) Open(ctx context.Context) error {
	ws.connCtx, ws.cancel = context.WithCancel(ctx)

	go func() {
		err := ws.writePump(ws.connCtx)
		ws.close(err)
	}()

	return nil
}

func (ws *wsStream) Close() error {
	ws.close(nil)
	return nil
}

func (ws *wsStream) close(err error) {
	ws.closeOnce.Do(func() {
		closed := false
		code := websocket.StatusNormalClosure
		closeErr, isCloseErr := errors.As[websocket.CloseError](err)

		switch {
		case err == nil:
			ws.logger.Debug("connection closed normally")
		case isCloseErr:
			ws.logger.Debug("connection closed by peer", log.Any("code", closeErr.Code))
			closed = true
		case errors.Is(err, net.ErrClosed):
			ws.logger.Debug("connection closed, net.ErrClosed")
			closed = true
		case errors.Is(err, ErrBufferFull):
			ws.logger.Warn("connection closed due to full write buffer")
			code = websocket.StatusPolicyViolation
		default:
			ws.logger.Debug("connection closed due to error", log.Error(err))
			code = websocket.StatusInternalError
		}

		if closed {
			_ = ws.conn.CloseNow()
		} else {
			_ = ws.conn.Close(code, "bye")
		}
		ws.cancel()
	})
}

func (ws *wsStream) wait() {
	<-ws.connCtx.Done()
}

func (ws *wsStream) writePump(ctx context.Context) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := ws.ping(ctx); err != nil {
				return err
			}
		case action, ok := <-ws.chBuf:
			if !ok {
				return net.ErrClosed
			}
			if err := action(); err != nil {
				return err
			}
		}
	}
}

func (ws *wsStream) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	return ws.conn.Ping(ctx)
}
