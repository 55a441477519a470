package routinglog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// Writer appends Entry records to a single line-delimited JSON file. It is
// the process's only writer; every request path calls Append through the
// same instance, serialized by mu, mirroring the teacher's file audit
// backend minus its per-day rotation (the routing log is one continuously
// growing file for the process lifetime).
type Writer struct {
	mu     sync.Mutex
	file   *os.File
	logger *zap.Logger

	// index backs Lookup (the override detector's ParentLookup): request
	// id -> chosen model id. Kept in memory rather than re-scanning the
	// file per sub-agent request, since this process is the log's only
	// writer and already holds every entry it could be asked to look up.
	index map[string]string
}

// NewWriter opens (creating if absent) the log file at path for append.
func NewWriter(path string, logger *zap.Logger) (*Writer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open routing log %s: %w", path, err)
	}
	return &Writer{
		file:   f,
		logger: logger.With(zap.String("component", "routinglog")),
		index:  make(map[string]string),
	}, nil
}

// Lookup resolves a request id previously passed to Append to the model it
// was routed to, implementing override.ParentLookup.
func (w *Writer) Lookup(requestID string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	modelID, ok := w.index[requestID]
	return modelID, ok
}

// Append writes one entry as a JSON line. Per spec, routing-log writes are
// best-effort: callers must not let a write failure abort the response, so
// Append only logs the error rather than propagating it to a caller that
// would otherwise have to special-case it in the hot path. It still returns
// the error for tests and callers that do want to observe it.
func (w *Writer) Append(e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		w.logger.Error("marshal routing log entry", zap.Error(err))
		return err
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	w.index[e.RequestID] = e.ModelID
	if _, err := w.file.Write(data); err != nil {
		w.logger.Error("write routing log entry", zap.Error(err), zap.String("request_id", e.RequestID))
		return err
	}
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
