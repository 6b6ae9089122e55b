package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/synthroute/pkg/errors"
	"github.com/matzehuels/synthroute/pkg/live"
	"github.com/matzehuels/synthroute/pkg/pipeline"
	"github.com/matzehuels/synthroute/pkg/store"
)

// MaxBodySize bounds uploaded documents.
const MaxBodySize = 64 << 20

const shutdownTimeout = 10 * time.Second

// Server is the HTTP API.
type Server struct {
	Runner *pipeline.Runner
	Store  store.Store
	Hub    *live.Hub
	Logger *log.Logger

	// AllowEmptyRooms accepts uploads to rooms without subscribers. By
	// default such uploads are rejected, since nobody would see them.
	AllowEmptyRooms bool

	router chi.Router
}

// New creates a server. Nil arguments get working defaults: a runner
// without cache or chemistry service, a [store.NullStore], a fresh hub and
// a discard logger. The hub replays stored room documents to new
// subscribers.
func New(runner *pipeline.Runner, st store.Store, hub *live.Hub, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, nil, logger)
	}
	if st == nil {
		st = store.NullStore{}
	}
	if hub == nil {
		hub = live.NewHub(logger)
	}
	s := &Server{Runner: runner, Store: st, Hub: hub, Logger: logger}
	if hub.Replay == nil {
		hub.Replay = s.replay
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handleRoot)
	r.Get("/status", s.handleStatus)
	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/elements", s.handleElements)
	})
	r.Post("/upload_json_body", s.handleUploadBody)
	r.Post("/upload_json_file", s.handleUploadFile)
	r.Get("/rooms", s.handleListRooms)
	r.Get("/rooms/{room_id}", s.handleGetRoom)
	r.Delete("/rooms/{room_id}", s.handleDeleteRoom)
	r.Handle("/ws", s.Hub)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully
// and disconnects websocket subscribers.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.Hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) replay(roomID string) json.RawMessage {
	room, err := s.Store.Get(context.Background(), roomID)
	if err != nil {
		s.Logger.Warn("room lookup failed", "room", roomID, "error", err)
		return nil
	}
	if room == nil {
		return nil
	}
	return room.Document
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.Logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Responses
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type detail struct {
	Detail string `json:"detail"`
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, detail{Detail: msg})
}

// writeError maps err to a status code and writes it as a detail response.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "error", err)
	}
	writeDetail(w, status, errors.UserMessage(err))
}

func statusOf(err error) int {
	if errors.IsInput(err) {
		return http.StatusBadRequest
	}
	var up *errors.UpstreamError
	if stderrors.As(err, &up) {
		return http.StatusBadGateway
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound, errors.ErrCodeRoomNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUpstream, errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}
