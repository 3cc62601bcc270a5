package httpapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"

	"github.com/secstrace/secstrace/internal/logging"
	"github.com/secstrace/secstrace/internal/query"
	"github.com/secstrace/secstrace/internal/session"
	"github.com/secstrace/secstrace/internal/store"
)

const ndjsonFixture = `{"ts_iso":"2024-01-01T00:00:00Z","dir":"H->E","s":1,"f":3,"wbit":false,"sysbytes":1,"body_json":{"semantic":{"kind":"EventReport"}}}
{"ts_iso":"2024-01-01T00:00:00.001Z","dir":"E->H","s":1,"f":4,"wbit":false,"sysbytes":1,"body_json":{"semantic":{"kind":"EventReport"}}}
{"ts_iso":"2024-01-01T00:00:00.002Z","dir":"E->H","s":6,"f":11,"wbit":false,"sysbytes":2,"ceid":201,"body_json":{"semantic":{"kind":"EventReport","ceid_name":"LotStart"}}}
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st := store.New(t.TempDir())
	lg := logging.NewDiscard()
	return &Server{
		Sessions:      session.NewManager(st, lg),
		Engine:        query.NewEngine(st),
		Log:           lg,
		MaxUploadSize: 1 << 20,
		CORSOrigins:   []string{"*"},
	}
}

func uploadFixture(t *testing.T, r http.Handler, body string) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "trace.ndjson")
	require.NoError(t, err)
	_, err = fw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/sessions", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp createSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	r := s.NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestUploadMetaAndDelete(t *testing.T) {
	s := newTestServer(t)
	r := s.NewRouter()

	id := uploadFixture(t, r, ndjsonFixture)

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/meta", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var meta store.Meta
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	require.EqualValues(t, 3, meta.RowCount)
	require.Equal(t, []uint16{1, 6}, meta.DistinctStream)
	require.Equal(t, []uint16{3, 4, 11}, meta.DistinctFunc)
	require.Equal(t, []uint32{201}, meta.DistinctCEID)

	// Assert on the raw wire bytes, not just the round-tripped struct:
	// decoding back into store.Meta would silently reverse a wrong
	// []uint8 field's base64 encoding and hide exactly this bug.
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.JSONEq(t, "[1,6]", string(raw["distinct_s"]))
	require.JSONEq(t, "[3,4,11]", string(raw["distinct_f"]))
	require.JSONEq(t, "[201]", string(raw["distinct_ceid"]))

	del := httptest.NewRequest(http.MethodDelete, "/sessions/"+id, nil)
	delRec := httptest.NewRecorder()
	r.ServeHTTP(delRec, del)
	require.Equal(t, http.StatusNoContent, delRec.Code)

	again := httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/meta", nil)
	againRec := httptest.NewRecorder()
	r.ServeHTTP(againRec, again)
	require.Equal(t, http.StatusNotFound, againRec.Code)
}

func TestMessagesArrowStream(t *testing.T) {
	s := newTestServer(t)
	r := s.NewRouter()
	id := uploadFixture(t, r, ndjsonFixture)

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/messages.arrow", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/vnd.apache.arrow.stream", rec.Header().Get("Content-Type"))

	ir, err := ipc.NewReader(bytes.NewReader(rec.Body.Bytes()), ipc.WithAllocator(memory.NewGoAllocator()))
	require.NoError(t, err)
	defer ir.Release()

	var total int64
	for ir.Next() {
		total += ir.Record().NumRows()
	}
	require.EqualValues(t, 3, total)
}

func TestMessagesWindowTimeRange(t *testing.T) {
	s := newTestServer(t)
	r := s.NewRouter()
	id := uploadFixture(t, r, ndjsonFixture)

	// from_ns == to_ns pinned at the second row's timestamp.
	ts := "1704067200001000000"
	req := httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/messages.arrow?from_ns="+ts+"&to_ns="+ts, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	ir, err := ipc.NewReader(bytes.NewReader(rec.Body.Bytes()), ipc.WithAllocator(memory.NewGoAllocator()))
	require.NoError(t, err)
	defer ir.Release()

	var total int64
	for ir.Next() {
		total += ir.Record().NumRows()
	}
	require.EqualValues(t, 1, total)
}

func TestEmptyUpload(t *testing.T) {
	s := newTestServer(t)
	r := s.NewRouter()
	id := uploadFixture(t, r, "")

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/meta", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var meta store.Meta
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	require.EqualValues(t, 0, meta.RowCount)

	// The window over an empty session is a schema-only stream.
	win := httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/messages.arrow", nil)
	winRec := httptest.NewRecorder()
	r.ServeHTTP(winRec, win)
	require.Equal(t, http.StatusOK, winRec.Code)

	ir, err := ipc.NewReader(bytes.NewReader(winRec.Body.Bytes()), ipc.WithAllocator(memory.NewGoAllocator()))
	require.NoError(t, err)
	defer ir.Release()
	require.False(t, ir.Next())
}

func TestSearchTextPayload(t *testing.T) {
	s := newTestServer(t)
	r := s.NewRouter()
	id := uploadFixture(t, r, ndjsonFixture)

	for needle, want := range map[string]int64{"lotstart": 1, "lotfinish": 0} {
		body := `{"text":"` + needle + `"}`
		req := httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/search", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		ir, err := ipc.NewReader(bytes.NewReader(rec.Body.Bytes()), ipc.WithAllocator(memory.NewGoAllocator()))
		require.NoError(t, err)
		var total int64
		for ir.Next() {
			total += ir.Record().NumRows()
		}
		ir.Release()
		require.Equal(t, want, total, needle)
	}
}

func TestSearchByStreamAndFunction(t *testing.T) {
	s := newTestServer(t)
	r := s.NewRouter()
	id := uploadFixture(t, r, ndjsonFixture)

	body := `{"s":[6],"f":[11]}`
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/search", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	ir, err := ipc.NewReader(bytes.NewReader(rec.Body.Bytes()), ipc.WithAllocator(memory.NewGoAllocator()))
	require.NoError(t, err)
	defer ir.Release()

	var total int64
	for ir.Next() {
		total += ir.Record().NumRows()
	}
	require.EqualValues(t, 1, total)
}

func TestPayloadByRowID(t *testing.T) {
	s := newTestServer(t)
	r := s.NewRouter()
	id := uploadFixture(t, r, ndjsonFixture)

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/payload/2", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	sem, ok := body["semantic"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "LotStart", sem["ceid_name"])
}

func TestPayloadUnknownRow(t *testing.T) {
	s := newTestServer(t)
	r := s.NewRouter()
	id := uploadFixture(t, r, ndjsonFixture)

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/payload/999", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadRejectsMissingFile(t *testing.T) {
	s := newTestServer(t)
	r := s.NewRouter()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/sessions", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
