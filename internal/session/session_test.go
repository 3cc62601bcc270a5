package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/secstrace/secstrace/internal/logging"
	"github.com/secstrace/secstrace/internal/store"
)

const ndjsonFixture = `{"ts_iso":"2024-01-01T00:00:00Z","dir":"H->E","s":1,"f":3,"wbit":false,"sysbytes":1,"body_json":{"semantic":{"kind":"EventReport"}}}
`

func TestCreateAndDelete(t *testing.T) {
	st := store.New(t.TempDir())
	m := NewManager(st, logging.NewDiscard())

	meta, id, err := m.Create("ndjson", "ndjson", strings.NewReader(ndjsonFixture))
	require.NoError(t, err)
	require.Equal(t, id, meta.SessionID)
	require.True(t, st.Exists(id))

	require.NoError(t, m.Delete(id))
	require.False(t, st.Exists(id))
}

func TestSweeperRemovesExpiredSessions(t *testing.T) {
	st := store.New(t.TempDir())
	m := NewManager(st, logging.NewDiscard())

	_, id, err := m.Create("ndjson", "ndjson", strings.NewReader(ndjsonFixture))
	require.NoError(t, err)

	removed, err := st.Sweep(time.Duration(0))
	require.NoError(t, err)
	require.Contains(t, removed, id)
	require.False(t, st.Exists(id))
}
