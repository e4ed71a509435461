package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"RegimeShift/internal/domain/models"
	apimetrics "RegimeShift/internal/service/metrics"
	"RegimeShift/internal/usecase"
	xlogger "RegimeShift/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Frame is the message pushed to status subscribers.
type Frame struct {
	Type         string                  `json:"type"`
	Status       models.RunStatus        `json:"status"`
	ModelResults *models.ModelResultsDTO `json:"model_results,omitempty"`
}

// StatusSource reports the current run status.
type StatusSource interface {
	Status() models.RunStatus
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes a status frame to every connected client when a snapshot is published.
type Hub struct {
	l            *xlogger.Logger
	src          StatusSource
	upgrader     websocket.Upgrader
	pingInterval time.Duration

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

func NewHub(l *xlogger.Logger, src StatusSource, pingInterval time.Duration) *Hub {
	if l == nil {
		l = xlogger.Nop()
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	apimetrics.Register()
	return &Hub{
		l:            l,
		src:          src,
		pingInterval: pingInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/status", h.Serve)
}

// Serve upgrades the connection and sends the current status right away.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.l.Warn("ws upgrade failed", xlogger.Error(err))
		return nil
	}
	cl := &client{conn: conn, send: make(chan []byte, 8)}
	if b, err := json.Marshal(Frame{Type: "status", Status: h.src.Status()}); err == nil {
		cl.send <- b
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	apimetrics.WSClients.Inc()

	go h.writeLoop(cl)
	h.readLoop(cl)
	return nil
}

// readLoop discards client frames and unregisters the client once the connection drops.
func (h *Hub) readLoop(cl *client) {
	defer h.remove(cl)
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(cl *client) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	defer cl.conn.Close()
	for {
		select {
		case b, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
		apimetrics.WSClients.Dec()
	}
	h.mu.Unlock()
}

// Publish broadcasts the status of snap. It has the usecase.Listener signature.
func (h *Hub) Publish(_ context.Context, snap *models.Snapshot) {
	f := Frame{Type: "status", Status: h.src.Status()}
	if snap.Ready() {
		mr := usecase.ToModelResults(snap.Result.Estimate)
		f.ModelResults = &mr
	}
	b, err := json.Marshal(f)
	if err != nil {
		h.l.Error("ws frame encode failed", xlogger.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		select {
		case cl.send <- b:
		default:
			// drop on backpressure
		}
	}
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for cl := range h.clients {
		delete(h.clients, cl)
		close(cl.send)
		apimetrics.WSClients.Dec()
	}
}
