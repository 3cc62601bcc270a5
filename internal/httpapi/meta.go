package httpapi

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/secstrace/secstrace/internal/record"
)

// handleMeta serves GET /sessions/{id}/meta: the cached summary
// computed once at ingest completion.
func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	meta, err := s.Sessions.Store.ReadMeta(id)
	if err != nil {
		if os.IsNotExist(err) {
			s.writeError(w, r, record.NewError(record.SessionNotFound, id, err))
			return
		}
		s.writeError(w, r, record.NewError(record.Io, "reading session meta", err))
		return
	}
	writeJSON(w, http.StatusOK, meta)
}
