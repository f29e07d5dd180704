package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"tilegame/internal/session"
	"tilegame/internal/storage"
)

// Archive is the read side of the game archive. *storage.Store implements it.
type Archive interface {
	GetSession(code string) (*storage.SessionRow, error)
	ListMoves(code string) ([]storage.Move, error)
	ListResults(code string) ([]storage.Result, error)
}

// Server is the HTTP server.
type Server struct {
	r       *chi.Mux
	manager *session.Manager
	archive Archive
	hub     *hub
}

// New creates a server with all routes. Requests other than the websocket
// upgrade are bounded by timeout.
func New(manager *session.Manager, archive Archive, timeout time.Duration) *Server {
	s := &Server{
		r:       chi.NewRouter(),
		manager: manager,
		archive: archive,
		hub:     newHub(),
	}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(requestLogger)
	s.r.Use(chimw.Recoverer)

	// long-lived, so outside the timeout group
	s.r.Get("/ws", s.handleWebSocket)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(timeout))
		r.Use(jsonContentType)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		})
		r.Route("/api/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Get("/{code}", s.handleGetSession)
			r.Get("/{code}/moves", s.handleListMoves)
			r.Get("/{code}/results", s.handleListResults)
		})
	})
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.r.ServeHTTP(w, r)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.List())
}

// handleGetSession returns the live public view, falling back to the
// archived summary for sessions no longer in memory.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if sess, ok := s.manager.Get(code); ok {
		writeJSON(w, http.StatusOK, sess.PublicView())
		return
	}
	row, err := s.archive.GetSession(code)
	if err != nil {
		s.archiveError(w, code, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleListMoves(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if _, err := s.archive.GetSession(code); err != nil {
		s.archiveError(w, code, err)
		return
	}
	moves, err := s.archive.ListMoves(code)
	if err != nil {
		s.archiveError(w, code, err)
		return
	}
	if moves == nil {
		moves = []storage.Move{}
	}
	writeJSON(w, http.StatusOK, moves)
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if _, err := s.archive.GetSession(code); err != nil {
		s.archiveError(w, code, err)
		return
	}
	results, err := s.archive.ListResults(code)
	if err != nil {
		s.archiveError(w, code, err)
		return
	}
	if results == nil {
		results = []storage.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) archiveError(w http.ResponseWriter, code string, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	log.Error().Err(err).Str("session", code).Msg("read archive")
	writeError(w, http.StatusInternalServerError, "archive unavailable")
}

// requestLogger logs one line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorPayload{Message: message})
}
