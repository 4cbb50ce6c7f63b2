package sink

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/blazeiburgess/openwakeword-go/pkg/wakeword"
)

// upgrader is permissive by design: this is a local, best-effort detection
// fan-out, not a browser-facing service with an origin policy to enforce.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebSocketSink broadcasts every Detection as a JSON record to all
// currently connected clients. It supplements the distilled spec's
// excluded full remote API: there is no control plane here, only a
// best-effort push of the same detection stream the text sinks print.
type WebSocketSink struct {
	log *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewWebSocketSink creates a sink with no connections yet; call Handler to
// get an http.Handler to mount, typically at /detections.
func NewWebSocketSink(log *slog.Logger) *WebSocketSink {
	if log == nil {
		log = slog.Default()
	}
	return &WebSocketSink{
		log:     log,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Handler upgrades incoming HTTP requests to WebSocket connections and
// registers them to receive future detections.
func (s *WebSocketSink) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Error("websocket upgrade failed", "error", err)
			return
		}

		s.mu.Lock()
		s.clients[conn] = struct{}{}
		s.mu.Unlock()

		s.log.Info("websocket client connected", "remote", conn.RemoteAddr().String())
		s.readUntilClosed(conn)
	})
}

// readUntilClosed discards incoming frames (this is a push-only feed) and
// unregisters the connection once the client disconnects.
func (s *WebSocketSink) readUntilClosed(conn *websocket.Conn) {
	defer s.unregister(conn)
	conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *WebSocketSink) unregister(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

// Write implements Sink, broadcasting d to every connected client. A client
// whose write fails is dropped rather than retried.
func (s *WebSocketSink) Write(d wakeword.Detection) error {
	payload, err := json.Marshal(jsonRecord{
		WakeWord:  d.DetectorName,
		Score:     d.Score,
		Timestamp: d.Time.Format(jsonTimestampLayout),
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			s.log.Warn("websocket write failed, dropping client", "error", err)
			delete(s.clients, conn)
			conn.Close()
		}
	}
	return nil
}

// Close disconnects every client.
func (s *WebSocketSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		conn.Close()
		delete(s.clients, conn)
	}
	return nil
}

var _ Sink = (*WebSocketSink)(nil)
