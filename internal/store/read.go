package store

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/secstrace/secstrace/internal/record"
)

// ChunkPaths lists a session's chunk files in ascending order. Readers
// always check meta.json first (via Exists or ReadMeta); callers only
// reach here once a session is known to exist.
func (s *Store) ChunkPaths(id string) ([]string, error) {
	entries, err := os.ReadDir(s.chunksDir(id))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = filepath.Join(s.chunksDir(id), n)
	}
	return out, nil
}

// ReadChunk opens one Arrow IPC file chunk and returns every
// RecordBatch it contains. The caller owns the returned records and
// must Release each one.
func ReadChunk(path string) ([]arrow.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, record.NewError(record.Io, "opening chunk file", err)
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, record.NewError(record.Io, "opening chunk reader", err)
	}
	defer r.Close()

	recs := make([]arrow.Record, 0, r.NumRecords())
	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			return nil, record.NewError(record.Io, "reading chunk record batch", err)
		}
		rec.Retain()
		recs = append(recs, rec)
	}
	return recs, nil
}

// ReadPayload returns the raw MessagePack bytes for one row's payload.
func (s *Store) ReadPayload(id string, rowID uint32) ([]byte, error) {
	path := filepath.Join(s.payloadsDir(id), payloadFileName(rowID))
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, record.NewError(record.RowNotFound, "no payload for row", err)
		}
		return nil, record.NewError(record.Io, "reading payload", err)
	}
	return b, nil
}

// Exists reports whether a session has a published meta.json — the
// only condition under which it is visible to readers at all.
func (s *Store) Exists(id string) bool {
	_, err := os.Stat(s.metaPath(id))
	return err == nil
}
