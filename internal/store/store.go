// Package store persists the hand-off files shared by the fetch and upload
// phases, and the error files written alongside them.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/openjobspec/wp2ctf/internal/wordpress"
)

// Store reads and writes JSON files under Dir/<scope>/.
type Store struct {
	Dir string
}

// New returns a store rooted at dir.
func New(dir string) *Store {
	return &Store{Dir: dir}
}

// RecordsPath is the hand-off file for one question type.
func (s *Store) RecordsPath(scope, questionType string) string {
	return filepath.Join(s.Dir, scope, questionType+".json")
}

// ErrorsPath is the failed-id file for one question type.
func (s *Store) ErrorsPath(scope, questionType string) string {
	return filepath.Join(s.Dir, scope, "errors", questionType+".json")
}

// MediaErrorsPath is the NDJSON file that collects media errors for a scope.
func (s *Store) MediaErrorsPath(scope string) string {
	return filepath.Join(s.Dir, scope, "errors", "media.ndjson")
}

// FieldsPath is the field-group definition file for a question type, without
// extension.
func (s *Store) FieldsPath(questionType string) string {
	return filepath.Join(s.Dir, "fields", questionType+"_formatted")
}

// WriteRecords replaces the hand-off file for questionType.
func (s *Store) WriteRecords(scope, questionType string, questions []wordpress.Question) error {
	if questions == nil {
		questions = []wordpress.Question{}
	}
	path := s.RecordsPath(scope, questionType)
	if err := writeJSON(path, questions); err != nil {
		return err
	}
	slog.Info("wrote records", "question_type", questionType, "count", len(questions), "path", path)
	return nil
}

// ReadRecords loads the hand-off file for questionType.
func (s *Store) ReadRecords(scope, questionType string) ([]wordpress.Question, error) {
	path := s.RecordsPath(scope, questionType)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	var questions []wordpress.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return questions, nil
}

// WriteFailedIDs records the ids of questions whose upload failed. An empty
// list removes any stale file from an earlier run.
func (s *Store) WriteFailedIDs(scope, questionType string, ids []int) error {
	path := s.ErrorsPath(scope, questionType)
	if len(ids) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale errors: %w", err)
		}
		return nil
	}
	if err := writeJSON(path, ids); err != nil {
		return err
	}
	slog.Warn("wrote failed question ids", "question_type", questionType, "count", len(ids), "path", path)
	return nil
}

// ReadFailedIDs loads the failed-id file for questionType.
func (s *Store) ReadFailedIDs(scope, questionType string) ([]int, error) {
	data, err := os.ReadFile(s.ErrorsPath(scope, questionType))
	if err != nil {
		return nil, fmt.Errorf("read errors: %w", err)
	}
	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("parse errors: %w", err)
	}
	return ids, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
