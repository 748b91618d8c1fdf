package websocket

import (
	"net/http"

	"github.com/coder/websocket"

	"github.com/duocall/backend/internal/events"
	"github.com/duocall/backend/internal/log"
)

// Server upgrades HTTP requests to WebSocket connections speaking the
// event-envelope protocol. Registering events is allowed until the first
// connection is accepted.
type Server[T any] struct {
	events.Handler[T]
	hooks          ConnectionHooks[T]
	allowedOrigins []string
	logger         *log.Logger
}

func NewServer[T any](
	hooks ConnectionHooks[T],
	allowedOrigins []string,
	logger *log.Logger,
) *Server[T] {
	if logger == nil {
		panic("logger cannot be nil")
	}
	if hooks == nil {
		hooks = &defaultHooks[T]{}
	}
	return &Server[T]{
		Handler:        events.NewHandler[T](logger),
		allowedOrigins: allowedOrigins,
		hooks:          hooks,
		logger:         logger,
	}
}

// HandleWebSocket handles the WebSocket upgrade and runs the connection
// until the peer goes away.
func (s *Server[T]) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	initValue, passed, err := s.hooks.OnVerify(r)
	if err != nil {
		s.logger.Warn("Connection verification error",
			log.String("remote_addr", r.RemoteAddr),
			log.Error(err))
		http.Error(w, "fail to verify", http.StatusInternalServerError)
		return
	} else if !passed {
		s.logger.Info("Connection verification failed",
			log.String("remote_addr", r.RemoteAddr))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.allowedOrigins,
	})
	if err != nil {
		s.logger.Error("WebSocket open failed",
			log.String("remote_addr", r.RemoteAddr),
			log.Error(err))
		return
	}

	stream := newStream(wsConn, s.logger)
	conn := s.Handler.NewConn(stream, initValue)

	s.logger.Info("WebSocket connection established",
		log.String("remote_addr", r.RemoteAddr),
		log.String("user_agent", r.UserAgent()))

	s.hooks.OnConnect(conn.Context())
	if err := conn.Open(r.Context()); err != nil {
		s.logger.Error("Failed to open event connection",
			log.String("remote_addr", r.RemoteAddr),
			log.Error(err))
		s.hooks.OnDisconnect(conn.Context(), int(websocket.StatusInternalError))
		return
	}

	// Wait for connection to close
	stream.wait()

	s.hooks.OnDisconnect(conn.Context(), int(websocket.StatusAbnormalClosure))
}
