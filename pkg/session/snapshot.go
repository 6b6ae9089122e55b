package session

import (
	"github.com/matzehuels/synthroute/pkg/elements"
	"github.com/matzehuels/synthroute/pkg/enrich"
	"github.com/matzehuels/synthroute/pkg/route"
	"github.com/matzehuels/synthroute/pkg/transform"
)

// Snapshot is a point-in-time copy of a session for export.
type Snapshot struct {
	Generation  uint64             `json:"generation"`
	Committed   uint64             `json:"committed_generation"`
	Enrichments int                `json:"enrichments"`
	RoomID      string             `json:"room_id,omitempty"`
	Index       int                `json:"route_index"`
	Document    *route.Document    `json:"document,omitempty"`
	Elements    []elements.Element `json:"elements"`
	IsDAG       bool               `json:"is_dag"`
	Warnings    []string           `json:"warnings,omitempty"`
	Enrich      enrich.Options     `json:"-"`
	Transform   transform.Options  `json:"-"`
}

// Snapshot returns a copy of the committed state with the transform
// applied. Selection and preview are not part of it.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.applyLocked()

	snap := Snapshot{
		Generation:  s.gen.Load(),
		Committed:   s.lastEnrich,
		Enrichments: s.enrichCount,
		RoomID:      s.roomID,
		Index:       s.index,
		Elements:    res.Elements,
		IsDAG:       res.IsDAG,
		Warnings:    res.Warnings,
		Enrich:      s.enrichOpts,
		Transform:   s.transform,
	}
	if s.doc != nil {
		snap.Document = s.doc.Clone()
	}
	return snap
}
