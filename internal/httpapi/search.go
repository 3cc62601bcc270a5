package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/secstrace/secstrace/internal/query"
	"github.com/secstrace/secstrace/internal/record"
)

// filterRequest is the wire shape of a search filter expression. The
// set fields are decoded as []int rather than []uint8 so that an
// out-of-range member reaches toFilter and is reported as a BadRequest
// naming its field, rather than as a generic decode error.
type filterRequest struct {
	Time *struct {
		FromNS int64 `json:"from_ns"`
		ToNS   int64 `json:"to_ns"`
	} `json:"time"`
	Dir  int8    `json:"dir"`
	S    []int   `json:"s"`
	F    []int   `json:"f"`
	CEID []int64 `json:"ceid"`
	Text string  `json:"text"`

	Highlight *struct {
		Unanswered bool `json:"unanswered"`
	} `json:"highlight"`
}

// toFilter validates and converts the wire request into a
// query.Filter. Out-of-range set members are a BadRequest, not a
// silent drop.
func (fr filterRequest) toFilter() (query.Filter, error) {
	var f query.Filter

	if fr.Time != nil {
		if fr.Time.FromNS != 0 {
			from := fr.Time.FromNS
			f.FromNS = &from
		}
		if fr.Time.ToNS != 0 {
			to := fr.Time.ToNS
			f.ToNS = &to
		}
	}

	switch fr.Dir {
	case 0:
		// no restriction
	case int8(record.DirHostToEquipment), int8(record.DirEquipmentToHost):
		d := record.Direction(fr.Dir)
		f.Dir = &d
	default:
		return f, record.NewError(record.BadRequest, "dir must be 0, 1, or -1", nil)
	}

	streams, err := toUint8Set(fr.S, "s")
	if err != nil {
		return f, err
	}
	f.Streams = streams

	functions, err := toUint8Set(fr.F, "f")
	if err != nil {
		return f, err
	}
	f.Functions = functions

	ceids := make([]uint32, 0, len(fr.CEID))
	for _, c := range fr.CEID {
		if c < 0 || c > 4294967295 {
			return f, record.NewError(record.BadRequest, "ceid values must fit in uint32", nil)
		}
		ceids = append(ceids, uint32(c))
	}
	f.CEIDs = ceids

	if fr.Text != "" {
		text := fr.Text
		f.PayloadText = &text
	}

	if fr.Highlight != nil {
		f.HighlightUnanswered = fr.Highlight.Unanswered
	}

	return f, nil
}

func toUint8Set(in []int, field string) ([]uint8, error) {
	out := make([]uint8, 0, len(in))
	for _, n := range in {
		if n < 0 || n > 255 {
			return nil, record.NewError(record.BadRequest, field+" values must fit in uint8", nil)
		}
		out = append(out, uint8(n))
	}
	return out, nil
}

// handleSearch serves POST /sessions/{id}/search: a declarative filter
// expression evaluated against the session, returned as an Arrow IPC
// stream.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var fr filterRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fr); err != nil {
		s.writeError(w, r, record.NewError(record.BadRequest, "malformed filter expression", err))
		return
	}

	f, err := fr.toFilter()
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
