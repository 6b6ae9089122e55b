package live

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/synthroute/pkg/errors"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Hub tracks websocket subscribers per room.
type Hub struct {
	// Replay, when set, is asked for the stored document of a room a
	// subscriber joins. A non-empty result is sent as a new-graph message
	// right after new-room.
	Replay func(roomID string) json.RawMessage

	upgrader websocket.Upgrader
	logger   *log.Logger

	mu     sync.RWMutex
	rooms  map[string]map[*peer]struct{}
	closed bool
}

// peer is one subscriber connection. Writes are serialized by mu.
type peer struct {
	conn *websocket.Conn
	room string
	mu   sync.Mutex
}

func (p *peer) send(msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteJSON(msg)
}

func (p *peer) ping() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// NewHub creates a hub. A nil logger discards log output.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
		rooms:  make(map[string]map[*peer]struct{}),
	}
}

// ServeHTTP upgrades the request and subscribes the connection to a room.
// The room is taken from the room_id query parameter, or freshly assigned.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room_id")
	if roomID == "" {
		roomID = uuid.NewString()
	} else if err := errors.ValidateRoomID(roomID); err != nil {
		http.Error(w, errors.UserMessage(err), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	p := &peer{conn: conn, room: roomID}
	if !h.add(p) {
		conn.Close()
		return
	}
	defer h.remove(p)

	if err := p.send(NewRoomMessage(roomID)); err != nil {
		return
	}
	h.logger.Debug("subscriber joined", "room", roomID)
	if h.Replay != nil {
		if data := h.Replay(roomID); len(data) > 0 {
			if err := p.send(NewGraphMessage(roomID, data)); err != nil {
				return
			}
		}
	}

	done := make(chan struct{})
	defer close(done)
	go h.keepalive(p, done)

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	// incoming messages are ignored; reading detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) keepalive(p *peer, done <-chan struct{}) {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			if err := p.ping(); err != nil {
				return
			}
		}
	}
}

func (h *Hub) add(p *peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if h.rooms[p.room] == nil {
		h.rooms[p.room] = make(map[*peer]struct{})
	}
	h.rooms[p.room][p] = struct{}{}
	return true
}

func (h *Hub) remove(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if peers, ok := h.rooms[p.room]; ok {
		delete(peers, p)
		if len(peers) == 0 {
			delete(h.rooms, p.room)
		}
	}
	p.conn.Close()
	h.logger.Debug("subscriber left", "room", p.room)
}

// Broadcast sends a new-graph message to every subscriber of the room and
// returns the number of subscribers it reached.
func (h *Hub) Broadcast(roomID string, data json.RawMessage) int {
	h.mu.RLock()
	peers := make([]*peer, 0, len(h.rooms[roomID]))
	for p := range h.rooms[roomID] {
		peers = append(peers, p)
	}
	h.mu.RUnlock()

	msg := NewGraphMessage(roomID, data)
	sent := 0
	for _, p := range peers {
		if err := p.send(msg); err != nil {
			h.logger.Debug("broadcast failed", "room", roomID, "error", err)
			continue
		}
		sent++
	}
	return sent
}

// Subscribers returns the number of connections in a room.
func (h *Hub) Subscribers(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var peers []*peer
	for _, room := range h.rooms {
		for p := range room {
			peers = append(peers, p)
		}
	}
	h.mu.Unlock()

	for _, p := range peers {
		p.mu.Lock()
		_ = p.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(time.Second))
		p.mu.Unlock()
		p.conn.Close()
	}
}
