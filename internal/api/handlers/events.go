package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/smartpick/internal/scheduler"
	"github.com/wonny/smartpick/pkg/logger"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 16
)

// EventHub fans job results out to websocket subscribers
// ⭐ SSOT: 작업 결과 스트리밍은 여기서만
type EventHub struct {
	upgrader websocket.Upgrader
	logger   *logger.Logger

	mu   sync.Mutex
	subs map[chan scheduler.JobResult]struct{}
}

// NewEventHub creates a hub with no subscribers
func NewEventHub(log *logger.Logger) *EventHub {
	return &EventHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: log,
		subs:   make(map[chan scheduler.JobResult]struct{}),
	}
}

// Publish delivers result to every subscriber. Slow subscribers miss events.
func (h *EventHub) Publish(result scheduler.JobResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- result:
		default:
			h.logger.WithField("job", result.JobName).Warn("Subscriber buffer full, dropping event")
		}
	}
}

// Subscribers returns the current subscriber count
func (h *EventHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *EventHub) subscribe() chan scheduler.JobResult {
	ch := make(chan scheduler.JobResult, sendBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *EventHub) unsubscribe(ch chan scheduler.JobResult) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// Serve upgrades the request and streams job results as JSON
// GET /ws/jobs
func (h *EventHub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	// reader: handles pongs and notices the client going away
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case result := <-ch:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(result); err != nil {
				h.logger.WithError(err).Debug("Websocket write failed")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
