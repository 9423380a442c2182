package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/codxp/server/internal/auth"
	"github.com/codxp/server/internal/store"
	"github.com/codxp/server/internal/user"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Default ping interval
	pingInterval = 30 * time.Second

	// Pong wait timeout
	pongWait = 60 * time.Second

	// Write timeout
	writeTimeout = 10 * time.Second

	// Inbound frames are ignored, so the limit just guards memory.
	maxMessageSize = 512
)

// TokenUpdate is the message pushed to a user's connections after their
// token counts change.
type TokenUpdate struct {
	Type   string        `json:"type"`
	Tokens user.TokenSet `json:"tokens"`
}

// wsConnection represents one active WebSocket connection.
type wsConnection struct {
	conn     *websocket.Conn
	username string
	send     chan []byte
}

// Hub tracks active WebSocket connections by user so token updates can
// be pushed to every session of the user that changed them.
type Hub struct {
	mu          sync.RWMutex
	connections map[*wsConnection]bool
	log         zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[*wsConnection]bool),
		log:         logger.With().Str("component", "ws").Logger(),
	}
}

func (h *Hub) register(conn *wsConnection) {
	h.mu.Lock()
	h.connections[conn] = true
	h.mu.Unlock()
	h.log.Debug().Str("username", conn.username).Msg("websocket connection registered")
}

func (h *Hub) unregister(conn *wsConnection) {
	h.mu.Lock()
	if _, ok := h.connections[conn]; ok {
		delete(h.connections, conn)
		close(conn.send)
	}
	h.mu.Unlock()
	h.log.Debug().Str("username", conn.username).Msg("websocket connection unregistered")
}

// NotifyTokens pushes the new token set to every connection owned by
// username. Connections too slow to drain their send buffer are dropped.
func (h *Hub) NotifyTokens(username string, tokens user.TokenSet) {
	message, err := json.Marshal(TokenUpdate{Type: "tokens", Tokens: tokens})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to encode token update")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.connections {
		if conn.username != username {
			continue
		}
		select {
		case conn.send <- message:
		default:
			delete(h.connections, conn)
			close(conn.send)
		}
	}
}

// WebSocketHandlers handles WebSocket connection upgrades.
type WebSocketHandlers struct {
	hub      *Hub
	tokens   *auth.TokenService
	store    *store.Store
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewWebSocketHandlers creates a new WebSocket handlers instance bound
// to the given hub.
func NewWebSocketHandlers(hub *Hub, tokens *auth.TokenService, st *store.Store, logger zerolog.Logger) *WebSocketHandlers {
	return &WebSocketHandlers{
		hub:    hub,
		tokens: tokens,
		store:  st,
		log:    logger.With().Str("component", "ws").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					// Non-browser clients send no Origin.
					return true
				}
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		},
	}
}

// HandleWebSocket handles GET /api/ws requests.
// The bearer token rides in the "token" query parameter because browser
// WebSocket clients cannot set an Authorization header.
func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		respondWithError(w, http.StatusUnauthorized, "MissingToken", "Authentication required")
		return
	}

	username, err := h.tokens.Verify(tokenString)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "InvalidToken", "Invalid or expired token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	wsConn := &wsConnection{
		conn:     conn,
		username: username,
		send:     make(chan []byte, 16),
	}
	h.hub.register(wsConn)

	go wsConn.writePump()
	go wsConn.readPump(h.hub)

	// Send the current state so the client doesn't have to follow the
	// upgrade with a GET.
	if record, err := h.store.Load(username); err == nil {
		h.hub.NotifyTokens(username, record.Tokens)
	} else if !errors.Is(err, store.ErrNotFound) {
		h.log.Error().Str("username", username).Err(err).Msg("failed to load initial token state")
	}
}

// writePump forwards hub messages to the peer and keeps the connection
// alive with pings.
func (c *wsConnection) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains the connection (the push channel is one-way; inbound
// frames are discarded) and unregisters on close.
func (c *wsConnection) readPump(hub *Hub) {
	defer func() {
		hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
