package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"tradingagents/internal/logging"
	"tradingagents/internal/server/app"
)

const wsWriteTimeout = 10 * time.Second

// WSHandler upgrades websocket connections and attaches them to the hub as
// subscribers of one session.
type WSHandler struct {
	hub      *app.Hub
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewWSHandler creates the websocket handler.
func NewWSHandler(hub *app.Hub) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logging.NewComponentLogger("WSHandler"),
	}
}

// Handle upgrades the connection, registers it for the requested session and
// holds it open until the client goes away. The read loop exists only to
// detect disconnects and answer control frames; inbound payloads are ignored.
func (h *WSHandler) Handle(c *gin.Context) {
	sessionID := c.Param("session_id")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Websocket upgrade failed for session %s: %v", sessionID, err)
		return
	}

	sub := newWSSubscriber(conn)
	h.hub.Register(sessionID, sub)
	defer func() {
		h.hub.Unregister(sessionID, sub)
		_ = sub.Close()
		h.logger.Info("Websocket closed for session %s", sessionID)
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("Websocket read error for session %s: %v", sessionID, err)
			}
			return
		}
	}
}

// wsSubscriber adapts a gorilla connection to the hub's subscriber interface.
// Gorilla connections allow one concurrent writer, so Send serializes writes.
type wsSubscriber struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newWSSubscriber(conn *websocket.Conn) *wsSubscriber {
	return &wsSubscriber{conn: conn}
}

func (s *wsSubscriber) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *wsSubscriber) Close() error {
	return s.conn.Close()
}
