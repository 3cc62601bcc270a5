package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/secstrace/secstrace/internal/record"
)

// handlePayload serves GET /sessions/{id}/payload/{row_id}: the
// decoded body_json for one row, looked up by direct path rather than
// a scan.
func (s *Server) handlePayload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rowIDStr := chi.URLParam(r, "row_id")

	rowID64, err := strconv.ParseUint(rowIDStr, 10, 32)
	if err != nil {
		s.writeError(w, r, record.NewError(record.BadRequest, "row_id must be a non-negative integer", err))
		return
	}
	rowID := uint32(rowID64)

	if !s.Sessions.Store.Exists(id) {
		s.writeError(w, r, record.NewError(record.SessionNotFound, id, nil))
		return
	}

	blob, err := s.Sessions.Store.ReadPayload(id, rowID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body map[string]interface{}
	if err := msgpack.Unmarshal(blob, &body); err != nil {
		s.writeError(w, r, record.NewError(record.Io, "decoding stored payload", err))
		return
	}
	writeJSON(w, http.StatusOK, body)
}
