package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/secstrace/secstrace/internal/record"
)

// errorResponse is the JSON body every non-2xx response carries.
type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps the record error taxonomy onto HTTP status codes:
// malformed input is a 400, missing resources are 404, everything
// else (filesystem failures) is a 500.
func statusFor(err error) int {
	kind, ok := record.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case record.SessionNotFound, record.RowNotFound:
		return http.StatusNotFound
	case record.ParseJson, record.ParseCsv, record.InvalidTimestamp,
		record.InvalidDirection, record.MissingBodyJson,
		record.UnknownFormat, record.BadRequest:
		return http.StatusBadRequest
	case record.Io:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes a JSON error body with the status
// statusFor derives from its record.Kind.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.Log.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	} else {
		s.Log.Warnf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
