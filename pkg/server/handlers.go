package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/synthroute/pkg/buildinfo"
	"github.com/matzehuels/synthroute/pkg/errors"
	sio "github.com/matzehuels/synthroute/pkg/io"
	"github.com/matzehuels/synthroute/pkg/normalize"
	"github.com/matzehuels/synthroute/pkg/pipeline"
	"github.com/matzehuels/synthroute/pkg/route"
	"github.com/matzehuels/synthroute/pkg/store"
	"github.com/matzehuels/synthroute/pkg/transform"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "synthroute " + buildinfo.Version + ": upload a synthesis graph to a room or POST it to /api/v1/elements",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// =============================================================================
// Elements
// =============================================================================

// ElementsResponse is the body of POST /api/v1/elements.
type ElementsResponse struct {
	Elements sio.Groups `json:"elements"`
	IsDAG    bool       `json:"is_dag"`
	Cycle    []string   `json:"cycle,omitempty"`
	Warnings []string   `json:"warnings,omitempty"`
	Failures []string   `json:"failures,omitempty"`
	Format   string     `json:"format,omitempty"`
	Skipped  int        `json:"skipped"`
	Cached   bool       `json:"cached"`
}

func (s *Server) handleElements(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts, err := elementsOptions(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts.Input = raw
	opts.Logger = s.Logger

	result, err := s.Runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := ElementsResponse{
		Elements: sio.Cytoscape(result.Elements).Elements,
		IsDAG:    result.IsDAG,
		Cycle:    result.Cycle,
		Warnings: result.Warnings,
		Skipped:  result.Stats.Skipped,
		Cached:   result.CacheInfo.ElementsHit,
	}
	if result.Report != nil {
		resp.Format = string(result.Report.Format)
	}
	for _, f := range result.Failures {
		resp.Failures = append(resp.Failures, f.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

// elementsOptions reads pipeline options from query parameters.
// convert_from is accepted as an alias of format.
func elementsOptions(q url.Values) (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()
	opts.Subgraph = q.Get("subgraph")
	opts.SourceFormat = q.Get("format")
	if opts.SourceFormat == "" {
		opts.SourceFormat = q.Get("convert_from")
	}
	if l := q.Get("layout"); l != "" {
		layout, err := transform.ParseLayout(l)
		if err != nil {
			return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid layout %q", l)
		}
		opts.Transform.Layout = layout
	}

	flags := []struct {
		name string
		dst  *bool
	}{
		{"skip_enrich", &opts.SkipEnrich},
		{"refresh", &opts.Refresh},
		{"show_reagents", &opts.Transform.ShowReagents},
		{"duplicate_starting_materials", &opts.Transform.DuplicateStartingMaterials},
		{"highlight_atoms", &opts.Enrich.HighlightAtoms},
		{"show_atom_indices", &opts.Enrich.ShowAtomIndices},
		{"normalize_roles", &opts.Enrich.NormalizeRoles},
		{"use_precomputed", &opts.Enrich.UsePrecomputed},
		{"show_structures", &opts.Enrich.ShowStructures},
	}
	for _, f := range flags {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid value for %s: %q", f.name, v)
		}
		*f.dst = b
	}
	return opts, nil
}

// =============================================================================
// Rooms
// =============================================================================

// UploadResponse is the body of a successful upload.
type UploadResponse struct {
	Data        *route.Document `json:"data"`
	Subscribers int             `json:"subscribers"`
}

func (s *Server) handleUploadBody(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	q := r.URL.Query()
	s.upload(w, r, q.Get("room_id"), q.Get("convert_from"), raw)
}

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid multipart upload"))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "file field is required"))
		return
	}
	defer file.Close()
	raw, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read upload"))
		return
	}

	roomID := r.FormValue("room_id")
	if roomID == "" {
		roomID = r.URL.Query().Get("room_id")
	}
	format := r.FormValue("convert_from")
	if format == "" {
		format = r.URL.Query().Get("convert_from")
	}
	s.upload(w, r, roomID, format, raw)
}

// upload normalizes raw, stores it for the room and pushes it to the room's
// subscribers.
func (s *Server) upload(w http.ResponseWriter, r *http.Request, roomID, format string, raw []byte) {
	if err := errors.ValidateRoomID(roomID); err != nil {
		s.writeError(w, err)
		return
	}
	if !s.AllowEmptyRooms && s.Hub.Subscribers(roomID) == 0 {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Invalid room ID: %s", roomID))
		return
	}

	f, err := normalize.ParseFormat(format)
	if err != nil {
		s.writeError(w, err)
		return
	}
	doc, report, err := normalize.Normalize(raw, f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if n := report.Skipped(); n > 0 {
		s.Logger.Warn("upload had malformed entries", "room", roomID, "skipped", n)
	}

	room, err := store.NewRoom(roomID, doc)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.Store.Put(r.Context(), room); err != nil {
		s.writeError(w, err)
		return
	}
	sent := s.Hub.Broadcast(roomID, room.Document)
	s.Logger.Info("graph uploaded", "room", roomID, "nodes", doc.NodeCount(), "subscribers", sent)

	writeJSON(w, http.StatusOK, UploadResponse{Data: doc, Subscribers: sent})
}

// RoomResponse is the body of GET /rooms/{room_id}.
type RoomResponse struct {
	RoomID      string          `json:"room_id"`
	Data        json.RawMessage `json:"data"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Subscribers int             `json:"subscribers"`
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "room_id")
	if err := errors.ValidateRoomID(roomID); err != nil {
		s.writeError(w, err)
		return
	}
	room, err := s.Store.Get(r.Context(), roomID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if room == nil {
		s.writeError(w, errors.New(errors.ErrCodeRoomNotFound, "Room not found: %s", roomID))
		return
	}
	writeJSON(w, http.StatusOK, RoomResponse{
		RoomID:      room.ID,
		Data:        room.Document,
		UpdatedAt:   room.UpdatedAt,
		Subscribers: s.Hub.Subscribers(roomID),
	})
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "room_id")
	if err := errors.ValidateRoomID(roomID); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.Store.Delete(r.Context(), roomID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"rooms": ids})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	if len(raw) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "request body is empty")
	}
	return raw, nil
}
