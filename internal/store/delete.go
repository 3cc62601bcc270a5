package store

import (
	"os"

	"github.com/secstrace/secstrace/internal/record"
)

// Delete removes a session. meta.json is removed first so a reader
// racing the delete either sees the session (and can still read its
// chunks/payloads, which are removed only afterward) or sees it as
// not-found — never a half-deleted directory with a live meta.json.
func (s *Store) Delete(id string) error {
	if !s.Exists(id) {
		return record.NewError(record.SessionNotFound, id, nil)
	}
	if err := os.Remove(s.metaPath(id)); err != nil && !os.IsNotExist(err) {
		return record.NewError(record.Io, "removing meta.json", err)
	}
	if err := os.RemoveAll(s.sessionDir(id)); err != nil {
		return record.NewError(record.Io, "removing session directory", err)
	}
	return nil
}
