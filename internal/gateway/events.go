package gateway

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/footprintai/folderium/internal/notify"
)

const (
	// SSE heartbeat interval to keep connections alive through proxies
	sseHeartbeatInterval = 15 * time.Second

	// WebSocket ping interval and write deadline
	wsPingInterval  = 30 * time.Second
	wsWriteDeadline = 10 * time.Second
)

// EventHandler streams folder notifications to clients over SSE and WebSocket
type EventHandler struct {
	bus      *notify.Bus
	upgrader websocket.Upgrader
}

// NewEventHandler creates a new event handler
func NewEventHandler(bus *notify.Bus) *EventHandler {
	return &EventHandler{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || isAllowedOrigin(origin)
			},
		},
	}
}

// HandleSSE handles SSE connections for notification streaming. Clients
// filter by topic with repeated ?key= query parameters; no keys means all.
func (h *EventHandler) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	origin := r.Header.Get("Origin")
	if origin != "" && !isAllowedOrigin(origin) {
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	keys := r.URL.Query()["key"]

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}

	sub := h.bus.Subscribe(keys...)
	defer h.bus.Unsubscribe(sub.ID)

	log.Printf("SSE client connected: %s (keys: %v)", sub.ID, keys)

	h.sendEvent(w, flusher, "connected", map[string]string{
		"subscriptionId": sub.ID,
	})

	heartbeat := time.NewTicker(sseHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Printf("SSE client disconnected: %s", sub.ID)
			return
		case <-sub.Done:
			log.Printf("SSE subscription closed: %s", sub.ID)
			return
		case <-heartbeat.C:
			// SSE comment lines keep idle connections open
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case n, ok := <-sub.Notifications:
			if !ok {
				return
			}
			h.sendEvent(w, flusher, string(n.Type), n)
		}
	}
}

// HandleWebSocket streams the same notifications over a WebSocket connection
// for clients that need bidirectional framing or cannot use EventSource.
func (h *EventHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	keys := r.URL.Query()["key"]

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sub := h.bus.Subscribe(keys...)
	defer h.bus.Unsubscribe(sub.ID)

	log.Printf("WebSocket client connected: %s (keys: %v)", sub.ID, keys)

	// Reader goroutine drains client frames and surfaces the close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			log.Printf("WebSocket client disconnected: %s", sub.ID)
			return
		case <-sub.Done:
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case n, ok := <-sub.Notifications:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := conn.WriteJSON(n); err != nil {
				log.Printf("websocket write failed: %v", err)
				return
			}
		}
	}
}

// sendEvent writes one SSE frame
func (h *EventHandler) sendEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("Failed to marshal event data: %v", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()
}

// isAllowedOrigin checks if the origin is allowed
func isAllowedOrigin(origin string) bool {
	for _, allowed := range getAllowedOrigins() {
		if origin == allowed {
			return true
		}
	}
	return false
}
