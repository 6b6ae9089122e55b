// Package store persists route documents per room.
//
// A room is a named slot that holds the latest document uploaded to it.
// Uploading to a room replaces its document; viewers subscribed to the
// room over the live channel are told about the new graph.
//
// Three backends are provided:
//   - file: one JSON file per room, for single-instance deployments
//   - mongo: the "rooms" collection, for shared deployments
//   - none: a store that keeps nothing
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/synthroute/pkg/errors"
)

// Room is the stored state of one room.
type Room struct {
	ID        string          `json:"id"`
	Document  json.RawMessage `json:"document"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Store is the interface for room storage backends.
type Store interface {
	// Get retrieves a room by id.
	// Returns nil, nil if the room does not exist.
	Get(ctx context.Context, roomID string) (*Room, error)

	// Put stores a room, replacing any previous document.
	Put(ctx context.Context, room *Room) error

	// Delete removes a room. Deleting a missing room is not an error.
	Delete(ctx context.Context, roomID string) error

	// List returns the ids of all stored rooms in sorted order.
	List(ctx context.Context) ([]string, error)

	Close() error
}

// Backend selects a store implementation.
type Backend string

const (
	BackendFile  Backend = "file"
	BackendMongo Backend = "mongo"
	BackendNone  Backend = "none"
)

// Config selects and configures a backend.
type Config struct {
	Backend Backend
	Dir     string
	Mongo   MongoConfig
}

// Open creates the store named by cfg.Backend. An empty backend means file.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Dir)
	case BackendMongo:
		return NewMongoStore(ctx, cfg.Mongo)
	case BackendNone:
		return NullStore{}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q (must be file, mongo or none)", cfg.Backend)
}

// NewRoom builds a room from a document, stamped with the current time.
func NewRoom(roomID string, doc any) (*Room, error) {
	if err := errors.ValidateRoomID(roomID); err != nil {
		return nil, err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return &Room{ID: roomID, Document: data, UpdatedAt: time.Now().UTC()}, nil
}
