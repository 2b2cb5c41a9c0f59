package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"music-round/internal/trivia"
)

type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func snapshotMessage(snap *trivia.Snapshot) wsMessage {
	return wsMessage{Type: "snapshot", Data: snap}
}

// wsHub fans game snapshots out to every socket watching that game.
type wsHub struct {
	mu     sync.Mutex
	groups map[string]map[*websocket.Conn]struct{}
	// writes serializes writers per connection; gorilla allows only one.
	writes map[*websocket.Conn]*sync.Mutex
}

func newWSHub() *wsHub {
	return &wsHub{
		groups: make(map[string]map[*websocket.Conn]struct{}),
		writes: make(map[*websocket.Conn]*sync.Mutex),
	}
}

func (h *wsHub) Add(gameID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[gameID]
	if group == nil {
		group = make(map[*websocket.Conn]struct{})
		h.groups[gameID] = group
	}
	group[conn] = struct{}{}
	h.writes[conn] = &sync.Mutex{}
}

func (h *wsHub) Has(gameID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[gameID]) > 0
}

func (h *wsHub) Remove(gameID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.writes, conn)
	_ = conn.Close()
	group := h.groups[gameID]
	if group == nil {
		return
	}
	delete(group, conn)
	if len(group) == 0 {
		delete(h.groups, gameID)
	}
}

func (h *wsHub) Send(conn *websocket.Conn, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return h.write(conn, data)
}

func (h *wsHub) Broadcast(gameID string, payload any) {
	h.mu.Lock()
	group := h.groups[gameID]
	conns := make([]*websocket.Conn, 0, len(group))
	for conn := range group {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, conn := range conns {
		if err := h.write(conn, data); err != nil {
			h.Remove(gameID, conn)
		}
	}
}

func (h *wsHub) write(conn *websocket.Conn, data []byte) error {
	h.mu.Lock()
	lock := h.writes[conn]
	h.mu.Unlock()
	if lock == nil {
		return websocket.ErrCloseSent
	}
	lock.Lock()
	defer lock.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (s *Server) handleWebsocket(c *gin.Context) {
	gameID := c.Param("id")
	snap, err := s.engine.Snapshot(c.Request.Context(), gameID)
	if err != nil {
		s.writeEngineError(c, err)
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	s.log.Infow("ws connected", "game_id", gameID, "remote", c.Request.RemoteAddr)
	s.ws.Add(gameID, conn)
	if err := s.ws.Send(conn, snapshotMessage(snap)); err != nil {
		s.ws.Remove(gameID, conn)
		return
	}
	go s.readWS(gameID, conn)
}

// readWS drains the socket until the client goes away; clients only listen.
func (s *Server) readWS(gameID string, conn *websocket.Conn) {
	defer s.ws.Remove(gameID, conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.log.Debugw("ws disconnected", "game_id", gameID, "error", err)
			return
		}
	}
}
