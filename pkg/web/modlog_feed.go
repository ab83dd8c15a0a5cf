// Package web - live mod-log feed over websockets.
package web

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/PancyStudios/PancyGuardGo/internal/moderation"
	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPingPeriod = 30 * time.Second
	feedSendBuffer = 32
)

// ModLogFeed broadcasts moderation events to every connected websocket
// client. Slow clients get dropped instead of blocking the broadcaster.
type ModLogFeed struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]chan []byte
	upgrader websocket.Upgrader
}

var (
	feed     *ModLogFeed
	feedOnce sync.Once
)

// InitModLogFeed initializes the global mod-log feed
func InitModLogFeed() *ModLogFeed {
	feedOnce.Do(func() {
		feed = NewModLogFeed()
	})
	return feed
}

// GetModLogFeed returns the global mod-log feed
func GetModLogFeed() *ModLogFeed {
	return feed
}

// NewModLogFeed creates a new mod-log feed
func NewModLogFeed() *ModLogFeed {
	return &ModLogFeed{
		clients: make(map[*websocket.Conn]chan []byte),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// SetupModLogFeed registers the websocket endpoint on the server
func SetupModLogFeed(s *Server, f *ModLogFeed) {
	s.GET("/ws/modlog", f.handleConnection)
}

// handleConnection upgrades the request and serves the client until it
// disconnects or falls too far behind.
func (f *ModLogFeed) handleConnection(c *gin.Context) {
	conn, err := f.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudo abrir el websocket: %v", err), "ModLogFeed")
		return
	}

	send := make(chan []byte, feedSendBuffer)

	f.mu.Lock()
	f.clients[conn] = send
	total := len(f.clients)
	f.mu.Unlock()

	logger.Info(fmt.Sprintf("Cliente conectado al feed de moderación (%d en total)", total), "ModLogFeed")

	go f.writeLoop(conn, send)
	go f.readLoop(conn)
}

// writeLoop pushes broadcast messages and keepalive pings to one client
func (f *ModLogFeed) writeLoop(conn *websocket.Conn, send chan []byte) {
	ticker := time.NewTicker(feedPingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-send:
			conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				f.drop(conn)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				f.drop(conn)
				return
			}
		}
	}
}

// readLoop drains incoming frames so control messages get processed.
// The feed is one-way, client payloads are discarded.
func (f *ModLogFeed) readLoop(conn *websocket.Conn) {
	defer f.drop(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// drop removes a client and closes its send channel
func (f *ModLogFeed) drop(conn *websocket.Conn) {
	f.mu.Lock()
	send, ok := f.clients[conn]
	if ok {
		delete(f.clients, conn)
		close(send)
	}
	f.mu.Unlock()

	if ok {
		conn.Close()
		logger.Info("Cliente desconectado del feed de moderación", "ModLogFeed")
	}
}

// Notify serializes a moderation event and fans it out to every client.
// It satisfies moderation.Notifier and never blocks the caller.
func (f *ModLogFeed) Notify(evt moderation.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		logger.Error(fmt.Sprintf("No se pudo serializar el evento de moderación: %v", err), "ModLogFeed")
		return
	}

	f.mu.Lock()
	var stale []*websocket.Conn
	for conn, send := range f.clients {
		select {
		case send <- data:
		default:
			stale = append(stale, conn)
		}
	}
	f.mu.Unlock()

	for _, conn := range stale {
		f.drop(conn)
	}
}

// ClientCount returns how many clients are connected to the feed
func (f *ModLogFeed) ClientCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}
