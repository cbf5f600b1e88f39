package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ridgeline-labs/termflow/internal/runtime"
)

// RecordLog is a file-backed, append-only stream of CompletionRecords
// encoded as msgpack, the lightweight alternative to the SQL store for
// deployments without PostgreSQL. Records survive the AgentRuntime's
// bounded in-memory ring.
type RecordLog struct {
	path string
}

// NewRecordLog creates a RecordLog at path; the file is created on
// first Append.
func NewRecordLog(path string) *RecordLog {
	return &RecordLog{path: path}
}

// Append encodes recs onto the end of the log.
func (l *RecordLog) Append(recs ...runtime.CompletionRecord) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := msgpack.NewEncoder(f)
	for _, rec := range recs {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

// Load decodes every record in the log, oldest first. A missing file
// yields an empty slice.
func (l *RecordLog) Load() ([]runtime.CompletionRecord, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []runtime.CompletionRecord
	dec := msgpack.NewDecoder(f)
	for {
		var rec runtime.CompletionRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
