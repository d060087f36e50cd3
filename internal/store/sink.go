package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MediaError is one line of the media error file.
type MediaError struct {
	RunID      string    `json:"run_id,omitempty"`
	QuestionID int       `json:"question_id"`
	Field      string    `json:"field"`
	URL        string    `json:"url"`
	Reason     string    `json:"reason"`
	Time       time.Time `json:"time"`
}

// ErrorSink collects media errors for later inspection.
type ErrorSink interface {
	RecordMediaError(e MediaError)
}

// FileSink appends media errors as NDJSON to a file. It is safe for
// concurrent use.
type FileSink struct {
	mu    sync.Mutex
	path  string
	runID string
	count int
	err   error
}

// NewFileSink returns a sink appending to path. The file is created lazily
// on the first error.
func NewFileSink(path, runID string) *FileSink {
	return &FileSink{path: path, runID: runID}
}

func (s *FileSink) RecordMediaError(e MediaError) {
	if e.RunID == "" {
		e.RunID = s.runID
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}

	slog.Warn("media error", "question_id", e.QuestionID, "field", e.Field, "url", e.URL, "reason", e.Reason)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	if err := s.append(e); err != nil && s.err == nil {
		s.err = err
		slog.Error("write media error file", "path", s.path, "error", err)
	}
}

func (s *FileSink) append(e MediaError) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open media errors: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(e)
}

// Count returns how many errors were recorded.
func (s *FileSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Err returns the first write failure, if any.
func (s *FileSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
