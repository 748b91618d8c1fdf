package signal

import (
	"go.opentelemetry.io/otel/metric"

	"github.com/duocall/backend/internal/otel"
)

type metrics struct {
	connections metric.Int64UpDownCounter
	joins       metric.Int64Counter
	joinRejects metric.Int64Counter
	departures  metric.Int64Counter
	signals     metric.Int64Counter
	signalDrops metric.Int64Counter
}

func newMetrics() *metrics {
	f := otel.NewFactory("relay/signal", otel.PrefixRelay)

	m := &metrics{}
	f.Int64UpDownCounter(&m.connections, "ws.connections",
		metric.WithDescription("Open WebSocket connections"))
	f.Int64Counter(&m.joins, "presence.joins",
		metric.WithDescription("Accepted join requests"))
	f.Int64Counter(&m.joinRejects, "presence.join_rejects",
		metric.WithDescription("Joins rejected by the room capacity limit"))
	f.Int64Counter(&m.departures, "presence.departures",
		metric.WithDescription("Leave and disconnect removals"))
	f.Int64Counter(&m.signals, "signal.relayed",
		metric.WithDescription("Signal payloads relayed"))
	f.Int64Counter(&m.signalDrops, "signal.dropped",
		metric.WithDescription("Signal payloads dropped by rate limiting"))
	return m
}
