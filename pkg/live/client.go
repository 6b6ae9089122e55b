package live

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/synthroute/pkg/normalize"
	"github.com/matzehuels/synthroute/pkg/route"
)

// DefaultReconnectDelay is the pause between connection attempts.
const DefaultReconnectDelay = 2 * time.Second

// Handler receives live channel events.
type Handler interface {
	// Room is called when the hub assigns the connection to a room.
	Room(ctx context.Context, roomID string)

	// Graph is called with every received document after normalization.
	Graph(ctx context.Context, roomID string, doc *route.Document, report *normalize.Report)
}

// Client subscribes to a hub.
type Client struct {
	// URL is the websocket endpoint, e.g. ws://localhost:5099/ws.
	URL string
	// RoomID joins an existing room. Empty lets the hub assign one.
	RoomID string
	// Format is the source format of received documents.
	Format normalize.Format
	// ReconnectDelay is the pause before redialing. Negative disables
	// reconnection.
	ReconnectDelay time.Duration

	Dialer *websocket.Dialer
	Logger *log.Logger
}

// NewClient creates a client for the hub at rawURL. http and https URLs are
// rewritten to ws and wss.
func NewClient(rawURL string, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse live url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported live url scheme %q", u.Scheme)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{
		URL:            u.String(),
		Format:         normalize.FormatAuto,
		ReconnectDelay: DefaultReconnectDelay,
		Dialer:         websocket.DefaultDialer,
		Logger:         logger,
	}, nil
}

// Run dials the hub and dispatches messages to h until ctx is done. Lost
// connections are redialed after ReconnectDelay; the room is kept across
// reconnects. Run returns nil when ctx ends.
func (c *Client) Run(ctx context.Context, h Handler) error {
	for {
		err := c.session(ctx, h)
		if ctx.Err() != nil {
			return nil
		}
		if c.ReconnectDelay < 0 {
			return err
		}
		c.Logger.Warn("live channel disconnected", "error", err, "retry", c.ReconnectDelay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.ReconnectDelay):
		}
	}
}

// session runs one connection until it fails or ctx ends.
func (c *Client) session(ctx context.Context, h Handler) error {
	target, err := url.Parse(c.URL)
	if err != nil {
		return err
	}
	if c.RoomID != "" {
		q := target.Query()
		q.Set("room_id", c.RoomID)
		target.RawQuery = q.Encode()
	}

	dialer := c.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, target.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.URL, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		c.dispatch(ctx, h, msg)
	}
}

func (c *Client) dispatch(ctx context.Context, h Handler, msg Message) {
	switch msg.Type {
	case TypeNewRoom:
		c.RoomID = msg.RoomID
		c.Logger.Info("joined room", "room", msg.RoomID)
		h.Room(ctx, msg.RoomID)
	case TypeNewGraph:
		doc, rep, err := Decode(msg.Data, c.Format)
		if err != nil {
			c.Logger.Error("received graph rejected", "room", msg.RoomID, "error", err)
			return
		}
		h.Graph(ctx, msg.RoomID, doc, rep)
	default:
		c.Logger.Debug("ignoring message", "type", msg.Type)
	}
}

// Decode normalizes the payload of a new-graph message. The payload is
// either a JSON object or a JSON string holding one.
func Decode(data json.RawMessage, format normalize.Format) (*route.Document, *normalize.Report, error) {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		data = json.RawMessage(text)
	}
	return normalize.Normalize(data, format)
}
