package httpapi

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/secstrace/secstrace/internal/record"
)

// createSessionResponse is the body POST /sessions returns on success.
type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

// handleCreateSession serves POST /sessions: a multipart upload under
// field "file" is ingested into a brand-new session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadSize)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, r, record.NewError(record.BadRequest, "parsing multipart form", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, record.NewError(record.BadRequest, "missing \"file\" form field", err))
		return
	}
	defer file.Close()

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")

	meta, _, err := s.Sessions.Create(ext, ext, file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Log.Infof("ingested session %s (%d rows) from %q", meta.SessionID, meta.RowCount, header.Filename)
	writeJSON(w, http.StatusOK, createSessionResponse{SessionID: meta.SessionID})
}
