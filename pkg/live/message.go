package live

import "encoding/json"

// MessageType names a wire message.
type MessageType string

const (
	TypeNewRoom  MessageType = "new-room"
	TypeNewGraph MessageType = "new-graph"
)

// Message is the wire envelope. Data is set for new-graph messages only.
type Message struct {
	Type   MessageType     `json:"type"`
	RoomID string          `json:"room_id"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// NewRoomMessage announces the room a connection belongs to.
func NewRoomMessage(roomID string) Message {
	return Message{Type: TypeNewRoom, RoomID: roomID}
}

// NewGraphMessage carries a raw document to a room.
func NewGraphMessage(roomID string, data json.RawMessage) Message {
	return Message{Type: TypeNewGraph, RoomID: roomID, Data: data}
}
