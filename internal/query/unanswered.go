package query

import (
	"sort"
	"time"

	"github.com/secstrace/secstrace/internal/record"
	"github.com/secstrace/secstrace/internal/store"
)

// unansweredWindow is the tolerance within which a reply must fall to
// count as answering a request.
const unansweredWindow = 5 * time.Second

// computeUnanswered scans every row in the session once and returns,
// for each row_id with wbit=true, whether no matching reply exists
// within ±unansweredWindow. Rows with wbit=false are absent from the
// result (the concept does not apply to them). This always scans the
// whole session, independent of any filter's time range, since a
// reply to an in-range request can itself fall outside it.
func computeUnanswered(s *store.Store, sessionID string) (map[uint32]bool, error) {
	rows, err := loadScalarRows(s, sessionID)
	if err != nil {
		return nil, err
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].TSNanos < rows[j].TSNanos })

	result := make(map[uint32]bool)
	windowNS := int64(unansweredWindow)

	for i, r := range rows {
		if !r.WBit {
			continue
		}
		wantDir := record.DirHostToEquipment
		if r.Dir == record.DirHostToEquipment {
			wantDir = record.DirEquipmentToHost
		}
		lo := r.TSNanos - windowNS
		hi := r.TSNanos + windowNS

		loIdx := sort.Search(len(rows), func(k int) bool { return rows[k].TSNanos >= lo })
		answered := false
		for k := loIdx; k < len(rows) && rows[k].TSNanos <= hi; k++ {
			if k == i {
				continue
			}
			c := rows[k]
			if c.Dir == wantDir && c.Stream == r.Stream && c.Function == r.Function+1 && c.SysBytes == r.SysBytes {
				answered = true
				break
			}
		}
		result[r.RowID] = !answered
	}
	return result, nil
}

func loadScalarRows(s *store.Store, sessionID string) ([]scalarRow, error) {
	paths, err := s.ChunkPaths(sessionID)
	if err != nil {
		return nil, err
	}
	var rows []scalarRow
	for _, p := range paths {
		recs, err := store.ReadChunk(p)
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			rows = append(rows, scalarRowsFromRecord(rec)...)
			rec.Release()
		}
	}
	return rows, nil
}
