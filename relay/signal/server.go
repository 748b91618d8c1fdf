package signal

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/duocall/backend/internal/errors"
	"github.com/duocall/backend/internal/events"
	"github.com/duocall/backend/internal/events/websocket"
	"github.com/duocall/backend/internal/log"
	"github.com/duocall/backend/presence"
)

// Server is the signaling relay: it speaks the event protocol over
// WebSocket, keeps room presence through the coordinator and fans
// payloads out to room members.
type Server struct {
	*websocket.Server[ConnState]

	cfg         *Config
	coordinator *presence.Coordinator
	conns       *ConnManager
	metrics     *metrics
	logger      *log.Logger
}

func NewServer(
	cfg *Config,
	coordinator *presence.Coordinator,
	logger *log.Logger,
) *Server {
	s := &Server{
		cfg:         cfg,
		coordinator: coordinator,
		conns:       NewConnManager(logger.Module("ConnMgr")),
		metrics:     newMetrics(),
		logger:      logger,
	}
	s.Server = websocket.NewServer[ConnState](s, cfg.AllowedOrigins, logger)

	s.Def("join", s.handleJoin)
	s.Def("leave", s.handleLeave)
	s.Def("signal", s.handleSignal)
	return s
}

func (s *Server) OnVerify(*http.Request) (*ConnState, bool, error) {
	return &ConnState{
		ConnID:  uuid.NewString(),
		limiter: rate.NewLimiter(rate.Limit(s.cfg.SignalRate), s.cfg.SignalBurst),
	}, true, nil
}

func (s *Server) OnConnect(cctx events.ConnContext[ConnState]) {
	st := cctx.Get()
	s.conns.Register(st.ConnID, cctx.Conn())
	s.metrics.connections.Add(context.Background(), 1)
}

func (s *Server) OnDisconnect(cctx events.ConnContext[ConnState], closeCode int) {
	ctx := context.Background()
	st := cctx.Get()

	// a compat-mode connection leaves no presence to announce
	if dep, ok := s.coordinator.Disconnect(st.ConnID); ok && !dep.Compat {
		s.notifyDeparture(ctx, st.ConnID, dep)
	}
	s.conns.Unregister(st.ConnID)
	s.metrics.connections.Add(ctx, -1)

	s.logger.Debug("Connection closed",
		log.String("conn_id", st.ConnID),
		log.Int("close_code", closeCode))
}

func (s *Server) handleJoin(cctx events.ConnContext[ConnState], data *json.RawMessage) error {
	var req joinRequest
	if err := events.BindData(data, &req); err != nil {
		return err
	}

	ctx := context.Background()
	st := cctx.Get()

	res, err := s.coordinator.Join(st.ConnID, req.Room, req.UserID, req.DeviceID, req.Name)
	if err != nil {
		if errors.Is(err, presence.CodeRoomFull) {
			s.metrics.joinRejects.Add(ctx, 1)
			return events.NewError("room_full")
		}
		return err
	}

	if res.Compat {
		s.conns.Broadcast(ctx, res.Recipients, st.ConnID,
			events.EventSystem, events.SystemNotice{Message: "joined"})
		return nil
	}

	s.metrics.joins.Add(ctx, 1)
	s.conns.Broadcast(ctx, res.Recipients, st.ConnID, "user_joined", userJoinedPayload{
		Room:          req.Room,
		UserID:        res.Session.UserID,
		Name:          res.Session.DisplayName,
		DeviceID:      res.Session.DeviceID,
		AnotherDevice: res.AnotherDevice,
	})
	s.conns.Broadcast(ctx, res.Recipients, "", "roster", rosterPayload{
		Room:  req.Room,
		Users: res.Roster,
	})
	return nil
}

func (s *Server) handleLeave(cctx events.ConnContext[ConnState], data *json.RawMessage) error {
	var req leaveRequest
	if err := events.BindData(data, &req); err != nil {
		return err
	}

	ctx := context.Background()
	st := cctx.Get()

	dep, ok := s.coordinator.Leave(st.ConnID)
	if !ok {
		// nothing tracked for this connection
		return nil
	}
	if dep.Compat {
		s.conns.Broadcast(ctx, dep.Recipients, st.ConnID,
			events.EventSystem, events.SystemNotice{Message: "left"})
		return nil
	}
	s.notifyDeparture(ctx, st.ConnID, dep)
	return nil
}

// handleSignal relays the payload untouched to the other room members.
// The relay is content-agnostic; only the room field is inspected.
func (s *Server) handleSignal(cctx events.ConnContext[ConnState], data *json.RawMessage) error {
	var probe struct {
		Room string `json:"room" validate:"required"`
	}
	if err := events.BindData(data, &probe); err != nil {
		return err
	}

	ctx := context.Background()
	st := cctx.Get()

	if !st.limiter.Allow() {
		s.metrics.signalDrops.Add(ctx, 1)
		s.logger.Debug("Signal dropped by rate limit",
			log.String("conn_id", st.ConnID),
			log.String("room", probe.Room))
		return nil
	}

	s.metrics.signals.Add(ctx, 1)
	s.conns.Broadcast(ctx, s.coordinator.Members(probe.Room), st.ConnID, "signal", data)
	return nil
}

func (s *Server) notifyDeparture(ctx context.Context, connID string, dep *presence.Departure) {
	s.metrics.departures.Add(ctx, 1)

	s.conns.Broadcast(ctx, dep.Recipients, connID, "user_left", userLeftPayload{
		Room:       dep.Room,
		UserID:     dep.UserID,
		Name:       dep.Name,
		DeviceID:   dep.DeviceID,
		LastDevice: dep.LastDevice,
		Reason:     string(dep.Reason),
	})
	s.conns.Broadcast(ctx, dep.Recipients, "", "roster", rosterPayload{
		Room:  dep.Room,
		Users: dep.Roster,
	})
}
