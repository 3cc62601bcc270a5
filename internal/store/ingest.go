package store

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/secstrace/secstrace/internal/columnar"
	"github.com/secstrace/secstrace/internal/parser"
	"github.com/secstrace/secstrace/internal/record"
)

// Ingest reads src through reg (using extHint to pick a parser, or
// auto-sniffing if empty), building the columnar chunks and per-row
// payloads for a brand-new session directory, and finally publishing
// meta.json atomically. Any failure aborts and removes the entire
// session directory before returning, so a partially-ingested session
// is never observable.
func (s *Store) Ingest(id, extHint, sourceFormat string, src io.Reader, reg *parser.Registry) (Meta, error) {
	dir := s.sessionDir(id)
	if err := os.MkdirAll(s.chunksDir(id), 0755); err != nil {
		return Meta{}, record.NewError(record.Io, "creating session directories", err)
	}
	if err := os.MkdirAll(s.payloadsDir(id), 0755); err != nil {
		os.RemoveAll(dir)
		return Meta{}, record.NewError(record.Io, "creating session directories", err)
	}

	b := columnar.NewBuilder()
	defer b.Release()
	acc := columnar.NewAccumulator()

	var rowID uint32
	chunkCount := 0

	flush := func() error {
		rec := b.Flush()
		if rec == nil {
			return nil
		}
		defer rec.Release()
		if err := s.writeChunk(id, chunkCount, rec); err != nil {
			return err
		}
		chunkCount++
		return nil
	}

	emit := func(msg record.Message) error {
		if err := s.writePayload(id, rowID, msg); err != nil {
			return err
		}
		b.Append(rowID, msg)
		acc.Observe(msg)
		rowID++
		if b.Full() {
			return flush()
		}
		return nil
	}

	var perr error
	if extHint != "" {
		perr = reg.ParseWithHint(extHint, src, emit)
	} else {
		perr = reg.ParseAuto(src, emit)
	}
	if perr != nil {
		os.RemoveAll(dir)
		return Meta{}, perr
	}

	if err := flush(); err != nil {
		os.RemoveAll(dir)
		return Meta{}, err
	}

	meta := metaFromAccumulator(id, sourceFormat, time.Now().UTC(), chunkCount, acc)
	if err := writeMetaAtomic(s.metaPath(id), meta); err != nil {
		os.RemoveAll(dir)
		return Meta{}, record.NewError(record.Io, "publishing meta.json", err)
	}
	return meta, nil
}

// writeChunk serializes one RecordBatch to chunks/<NNN>.arrow using
// the Arrow IPC file format (schema + footer), so a reader can open a
// single chunk file at random without replaying the whole session.
func (s *Store) writeChunk(id string, n int, rec arrow.Record) error {
	path := filepath.Join(s.chunksDir(id), chunkFileName(n))
	f, err := os.Create(path)
	if err != nil {
		return record.NewError(record.Io, "creating chunk file", err)
	}
	defer f.Close()

	w, err := ipc.NewFileWriter(f, ipc.WithSchema(columnar.Schema))
	if err != nil {
		return record.NewError(record.Io, "opening chunk writer", err)
	}
	if err := w.Write(rec); err != nil {
		return record.NewError(record.Io, "writing chunk batch", err)
	}
	if err := w.Close(); err != nil {
		return record.NewError(record.Io, "closing chunk writer", err)
	}
	return nil
}

func (s *Store) writePayload(id string, rowID uint32, msg record.Message) error {
	b, err := msgpack.Marshal(msg.BodyJSON)
	if err != nil {
		return record.NewError(record.Io, "encoding payload", err)
	}
	path := filepath.Join(s.payloadsDir(id), payloadFileName(rowID))
	if err := os.WriteFile(path, b, 0644); err != nil {
		return record.NewError(record.Io, "writing payload", err)
	}
	return nil
}
