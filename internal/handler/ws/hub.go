package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	xlogger "SignalDesk/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

// Message is the envelope pushed to subscribers.
type Message struct {
	Type   string                 `json:"type"`
	Report *models.AnalysisReport `json:"report"`
}

type client struct {
	conn   *websocket.Conn
	symbol string
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// Hub pushes finished reports to websocket subscribers. A subscriber may filter on one symbol
// with ?symbol=. Slow subscribers are dropped rather than allowed to block the broadcaster.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *xlogger.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
	wg      sync.WaitGroup
}

var _ domrepo.Broadcaster = (*Hub)(nil)

// NewHub creates a hub. allowedOrigins empty or containing "*" accepts any origin.
func NewHub(logger *xlogger.Logger, allowedOrigins []string) *Hub {
	if logger == nil {
		logger = xlogger.Nop()
	}
	h := &Hub{
		logger:  logger.Named("ws"),
		clients: make(map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/reports", h.Serve)
}

// Serve upgrades the connection and registers the subscriber.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}

	cl := &client{
		conn:   conn,
		symbol: strings.ToUpper(strings.TrimSpace(c.QueryParam("symbol"))),
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	h.clients[cl] = struct{}{}
	h.wg.Add(2)
	h.mu.Unlock()

	h.logger.Debug("subscriber connected", xlogger.String("symbol", cl.symbol), xlogger.Int("clients", h.Len()))
	go h.writeLoop(cl)
	go h.readLoop(cl)
	return nil
}

// Broadcast implements Broadcaster.
func (h *Hub) Broadcast(r *models.AnalysisReport) {
	if r == nil {
		return
	}
	data, err := json.Marshal(Message{Type: "report", Report: r})
	if err != nil {
		h.logger.Error("marshal report for broadcast", xlogger.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.clients {
		if cl.symbol != "" && cl.symbol != r.Symbol {
			continue
		}
		select {
		case cl.send <- data:
		case <-cl.done:
		default:
			h.logger.Warn("dropping slow subscriber", xlogger.String("symbol", cl.symbol))
			cl.close()
		}
	}
}

// Len returns the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber and waits for their goroutines.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for cl := range h.clients {
		cl.close()
	}
	h.mu.Unlock()
	h.wg.Wait()
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	delete(h.clients, cl)
	h.mu.Unlock()
}

func (h *Hub) writeLoop(cl *client) {
	defer h.wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.remove(cl)
		_ = cl.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = cl.conn.Close()
	}()

	for {
		select {
		case msg := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				cl.close()
				return
			}
		case <-ticker.C:
			if err := cl.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				cl.close()
				return
			}
		case <-cl.done:
			return
		}
	}
}

// readLoop drains client frames so pongs and close frames are processed.
func (h *Hub) readLoop(cl *client) {
	defer h.wg.Done()
	defer cl.close()

	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
