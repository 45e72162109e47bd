package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_messages_sent_total",
		Help: "Messages committed to storage.",
	})
	MessagesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_messages_deleted_total",
		Help: "Messages deleted for everyone.",
	})
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "messaging_ws_connections",
		Help: "Live websocket connections.",
	})
	WSEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messaging_ws_events_total",
		Help: "Socket events handled, by event name.",
	}, []string{"event"})
)

// Handler returns the scrape endpoint, served on its own listener.
func Handler() http.Handler {
	return promhttp.Handler()
}
