package store

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openjobspec/wp2ctf/internal/wordpress"
)

func TestRecordsRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	in := []wordpress.Question{
		{ID: 1, Title: "one", Type: "ecg", Media: map[string]string{"question_ecg_image": "https://h/uploads/a.png"}},
		{ID: 2, Title: "two", Type: "ecg"},
	}

	require.NoError(t, s.WriteRecords("sample", "ecg", in))
	assert.FileExists(t, filepath.Join(s.Dir, "sample", "ecg.json"))

	out, err := s.ReadRecords("sample", "ecg")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 1, out[0].ID)
	assert.Equal(t, "https://h/uploads/a.png", out[0].MediaValue("question_ecg_image"))
	assert.Equal(t, "two", out[1].Title)
}

func TestWriteRecords_EmptyIsArray(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.WriteRecords("full", "echo", nil))

	data, err := os.ReadFile(s.RecordsPath("full", "echo"))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestReadRecords_Missing(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.ReadRecords("full", "angiogram")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFailedIDs(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.WriteFailedIDs("sample", "ecg", []int{4, 9}))

	ids, err := s.ReadFailedIDs("sample", "ecg")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 9}, ids)

	require.NoError(t, s.WriteFailedIDs("sample", "ecg", nil))
	assert.NoFileExists(t, s.ErrorsPath("sample", "ecg"))

	require.NoError(t, s.WriteFailedIDs("sample", "echo", nil))
}

func TestFileSink(t *testing.T) {
	s := New(t.TempDir())
	sink := NewFileSink(s.MediaErrorsPath("sample"), "run-1")

	sink.RecordMediaError(MediaError{QuestionID: 3, Field: "question_ecg_image", URL: "not-a-path", Reason: "unparseable"})
	sink.RecordMediaError(MediaError{QuestionID: 4, Field: "question_ecg_video", URL: "https://h/uploads/x.mp4", Reason: "HTTP 422"})

	assert.Equal(t, 2, sink.Count())
	require.NoError(t, sink.Err())

	f, err := os.Open(s.MediaErrorsPath("sample"))
	require.NoError(t, err)
	defer f.Close()

	var lines []MediaError
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e MediaError
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		lines = append(lines, e)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "run-1", lines[0].RunID)
	assert.Equal(t, "not-a-path", lines[0].URL)
	assert.False(t, lines[0].Time.IsZero())
	assert.Equal(t, 4, lines[1].QuestionID)
}
