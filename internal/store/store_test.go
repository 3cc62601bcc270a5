package store

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/secstrace/secstrace/internal/parser"
)

const ndjsonFixture = `{"ts_iso":"2024-01-01T00:00:00Z","dir":"H->E","s":1,"f":13,"wbit":true,"sysbytes":1,"ceid":500,"body_json":{"kind":"EventReport"}}
{"ts_iso":"2024-01-01T00:00:01Z","dir":"E->H","s":1,"f":14,"wbit":false,"sysbytes":1,"body_json":{"kind":"EventReport"}}
`

func TestIngestAndRead(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	reg := parser.NewRegistry()

	meta, err := s.Ingest("sess1", "", "ndjson", strings.NewReader(ndjsonFixture), reg)
	require.NoError(t, err)
	require.EqualValues(t, 2, meta.RowCount)
	require.Equal(t, 1, meta.ChunkCount)

	require.True(t, s.Exists("sess1"))

	readBack, err := s.ReadMeta("sess1")
	require.NoError(t, err)
	require.Equal(t, meta.RowCount, readBack.RowCount)

	chunks, err := s.ChunkPaths("sess1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	recs, err := ReadChunk(chunks[0])
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.EqualValues(t, 2, recs[0].NumRows())
	recs[0].Release()

	payload, err := s.ReadPayload("sess1", 0)
	require.NoError(t, err)
	require.Contains(t, string(payload), "EventReport")
}

func TestIngestEmptyFile(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	reg := parser.NewRegistry()

	meta, err := s.Ingest("empty", "", "ndjson", strings.NewReader(""), reg)
	require.NoError(t, err)
	require.EqualValues(t, 0, meta.RowCount)
	require.EqualValues(t, 0, meta.TMinNS)
	require.EqualValues(t, 0, meta.TMaxNS)
	require.Empty(t, meta.DistinctStream)
	require.Empty(t, meta.DistinctFunc)
	require.Empty(t, meta.DistinctCEID)
	require.Equal(t, 0, meta.ChunkCount)
	require.True(t, s.Exists("empty"))

	chunks, err := s.ChunkPaths("empty")
	require.NoError(t, err)
	require.Empty(t, chunks)
}

func TestIngestAbortsOnParseError(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	reg := parser.NewRegistry()

	_, err := s.Ingest("bad", "", "ndjson", strings.NewReader("not a recognized format at all"), reg)
	require.Error(t, err)
	require.False(t, s.Exists("bad"))
}

func TestDeleteUnknownSession(t *testing.T) {
	s := New(t.TempDir())
	err := s.Delete("nope")
	require.Error(t, err)
}

func TestSweepRemovesExpiredSessions(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	reg := parser.NewRegistry()

	_, err := s.Ingest("old", "", "ndjson", strings.NewReader(ndjsonFixture), reg)
	require.NoError(t, err)

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(s.metaPath("old"), old, old))

	removed, err := s.Sweep(24 * time.Hour)
	require.NoError(t, err)
	require.Contains(t, removed, "old")
	require.False(t, s.Exists("old"))
}
