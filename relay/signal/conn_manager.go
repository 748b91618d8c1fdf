package signal

import (
	"context"

	"github.com/duocall/backend/internal/events"
	"github.com/duocall/backend/internal/log"
	syncutil "github.com/duocall/backend/internal/sync"
)

// ConnManager is the connection registry used for fan-out. It maps
// connection IDs handed out at verify time to their live connections.
type ConnManager struct {
	conns  *syncutil.Map[string, events.Conn[ConnState]]
	logger *log.Logger
}

func NewConnManager(logger *log.Logger) *ConnManager {
	return &ConnManager{
		conns:  syncutil.NewMap[string, events.Conn[ConnState]](),
		logger: logger,
	}
}

func (m *ConnManager) Register(connID string, conn events.Conn[ConnState]) {
	m.conns.Store(connID, conn)
}

func (m *ConnManager) Unregister(connID string) {
	m.conns.Delete(connID)
}

func (m *ConnManager) Len() int {
	return m.conns.Len()
}

// Broadcast delivers an event to the given recipients, skipping exclude.
// Delivery is best-effort per recipient; one dead connection never
// aborts delivery to the rest.
func (m *ConnManager) Broadcast(ctx context.Context, recipients []string, exclude, event string, data any) {
	for _, connID := range recipients {
		if connID == exclude {
			continue
		}
		conn, ok := m.conns.Load(connID)
		if !ok {
			continue
		}
		if err := conn.Emit(ctx, event, data); err != nil {
			m.logger.Warn("Broadcast delivery failed",
				log.String("event", event),
				log.String("conn_id", connID),
				log.Error(err))
		}
	}
}
