package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/secstrace/secstrace/internal/query"
	"github.com/secstrace/secstrace/internal/record"
)

// handleMessages serves GET /sessions/{id}/messages.arrow: the
// unfiltered (aside from time range and pagination) window over a
// session, encoded as an Arrow IPC stream.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	f, err := parseWindowQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	wt, err := s.Engine.Search(r.Context(), id, f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.apache.arrow.stream")
	w.WriteHeader(http.StatusOK)
	wt.WriteTo(w)
}

// parseWindowQuery builds a Filter from the messages.arrow query
// string: from_ns, to_ns, limit, cursor. A zero from_ns/to_ns disables
// that bound, the same convention the search filter expression uses.
func parseWindowQuery(r *http.Request) (query.Filter, error) {
	q := r.URL.Query()
	var f query.Filter

	if v := q.Get("from_ns"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, record.NewError(record.BadRequest, "from_ns must be an integer", err)
		}
		if n != 0 {
			f.FromNS = &n
		}
	}
	if v := q.Get("to_ns"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, record.NewError(record.BadRequest, "to_ns must be an integer", err)
		}
		if n != 0 {
			f.ToNS = &n
		}
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, record.NewError(record.BadRequest, "limit must be a non-negative integer", err)
		}
		f.Limit = n
	}
	if v := q.Get("cursor"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return f, record.NewError(record.BadRequest, "cursor must be a non-negative integer", err)
		}
		c := uint32(n)
		f.Cursor = &c
	}
	return f, nil
}
