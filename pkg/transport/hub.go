// Package transport streams query results to subscribed clients over
// WebSocket: it routes planner.StepResults to clients as an executor
// finishes them, rather than waiting for the whole query to finish. Each
// connection names the metrics it wants via a query-string subscription;
// a connection with no metrics named receives every result, matching the
// "subscribe to everything" default a dashboard-style client would want.
package transport

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nicktill/coltsdb/pkg/config"
	"github.com/nicktill/coltsdb/pkg/planner"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
	},
	ReadBufferSize:  config.WSReadBufferSize,
	WriteBufferSize: config.WSWriteBufferSize,
}

// subscription is one connected client's interest: which metrics it wants
// results for. A nil/empty metrics set subscribes to every metric.
type subscription struct {
	conn    *websocket.Conn
	metrics map[string]bool
}

func (s *subscription) wants(metric string) bool {
	if len(s.metrics) == 0 {
		return true
	}
	return s.metrics[metric]
}

// broadcastMsg pairs an encoded StepResult with the metric it came from, so
// Run can route it only to subscriptions that want that metric.
type broadcastMsg struct {
	metric string
	data   []byte
}

// ResultHub manages WebSocket connections subscribed to streaming query
// results, routing each result only to the connections whose subscription
// names its metric (or named none, meaning all metrics).
type ResultHub struct {
	subs map[*websocket.Conn]*subscription

	register   chan *subscription
	unregister chan *websocket.Conn
	broadcast  chan broadcastMsg

	mu sync.RWMutex
}

// NewResultHub creates a new, unstarted ResultHub. Call Run to start its loop.
func NewResultHub() *ResultHub {
	return &ResultHub{
		subs:       make(map[*websocket.Conn]*subscription),
		register:   make(chan *subscription, config.WSChannelBuffer),
		unregister: make(chan *websocket.Conn, config.WSChannelBuffer),
		broadcast:  make(chan broadcastMsg, config.WSBroadcastBuffer),
	}
}

// Run starts the hub's main loop, returning once ctx is canceled.
func (h *ResultHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.subs {
				conn.Close()
			}
			h.mu.Unlock()
			return
		case sub := <-h.register:
			h.mu.Lock()
			h.subs[sub.conn] = sub
			count := len(h.subs)
			h.mu.Unlock()
			log.Printf("transport: client subscribed to %v (total: %d)", sub.metrics, count)
		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subs[conn]; ok {
				delete(h.subs, conn)
				conn.Close()
			}
			count := len(h.subs)
			h.mu.Unlock()
			log.Printf("transport: client disconnected (total: %d)", count)
		case msg := <-h.broadcast:
			h.mu.RLock()
			var failed []*websocket.Conn
			for conn, sub := range h.subs {
				if !sub.wants(msg.metric) {
					continue
				}
				conn.SetWriteDeadline(time.Now().Add(config.WSWriteDeadline))
				if err := conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
					log.Printf("transport: write error: %v", err)
					failed = append(failed, conn)
				}
			}
			h.mu.RUnlock()

			for _, conn := range failed {
				h.unregister <- conn
			}
		}
	}
}

// BroadcastResult marshals result and enqueues it for delivery to every
// connection subscribed to result.Step.Metric. The send is non-blocking: a
// full broadcast buffer drops the message rather than stalling the caller
// (which would otherwise be the executor goroutine producing results).
func (h *ResultHub) BroadcastResult(result planner.StepResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- broadcastMsg{metric: result.Step.Metric, data: data}:
		return nil
	default:
		log.Printf("transport: broadcast buffer full, dropping result for metric %q", result.Step.Metric)
		return nil
	}
}

// HasClients reports whether any client is currently connected.
func (h *ResultHub) HasClients() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs) > 0
}

// parseMetricsParam splits a comma-separated "metrics" query parameter into
// a subscription set; an empty or absent parameter subscribes to all metrics.
func parseMetricsParam(raw string) map[string]bool {
	if raw == "" {
		return nil
	}
	metrics := make(map[string]bool)
	for _, m := range strings.Split(raw, ",") {
		if m = strings.TrimSpace(m); m != "" {
			metrics[m] = true
		}
	}
	return metrics
}

// HandleQueryStream upgrades a request to a WebSocket and subscribes it to
// hub, scoped to the metrics named in the "metrics" query parameter (or all
// metrics if omitted) — the transport side of streaming planner.StepResults
// to clients as an executor produces them.
func HandleQueryStream(hub *ResultHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("transport: upgrade failed: %v", err)
			return
		}

		sub := &subscription{conn: conn, metrics: parseMetricsParam(r.URL.Query().Get("metrics"))}
		hub.register <- sub

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		go func() {
			ticker := time.NewTicker(config.WSPingInterval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					conn.SetWriteDeadline(time.Now().Add(config.WSWriteDeadline))
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						return
					}
				}
			}
		}()

		defer func() {
			cancel()
			hub.unregister <- conn
		}()

		conn.SetReadDeadline(time.Now().Add(config.WSReadDeadline))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(config.WSReadDeadline))
			return nil
		})

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("transport: read error: %v", err)
				}
				break
			}
		}
	}
}
