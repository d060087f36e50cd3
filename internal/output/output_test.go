package output

import (
	"bytes"
	"strings"
	"testing"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	oldOut, oldErr, oldFormat := Stdout, Stderr, Format
	Stdout, Stderr = &stdout, &stderr
	t.Cleanup(func() { Stdout, Stderr, Format = oldOut, oldErr, oldFormat })
	return &stdout, &stderr
}

func TestTable(t *testing.T) {
	stdout, _ := capture(t)

	Table(
		[]string{"TYPE", "SUCCEEDED"},
		[][]string{
			{"ecg", "25"},
			{"echo", "3"},
		},
	)

	out := stdout.String()
	if !strings.Contains(out, "TYPE") {
		t.Error("output missing header TYPE")
	}
	if !strings.Contains(out, "ecg") {
		t.Error("output missing row 'ecg'")
	}
	if !strings.Contains(out, "echo") {
		t.Error("output missing row 'echo'")
	}
}

func TestJSON(t *testing.T) {
	stdout, _ := capture(t)

	if err := JSON(map[string]string{"key": "value"}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, `"key"`) {
		t.Error("output missing key field")
	}
	if !strings.Contains(out, `"value"`) {
		t.Error("output missing value field")
	}
}

func TestPrintResult(t *testing.T) {
	stdout, _ := capture(t)
	rows := func() [][]string { return [][]string{{"ecg", "1"}} }

	Format = "json"
	if err := PrintResult(map[string]int{"ecg": 1}, []string{"TYPE", "N"}, rows); err != nil {
		t.Fatalf("PrintResult() error: %v", err)
	}
	if !strings.Contains(stdout.String(), `"ecg": 1`) {
		t.Errorf("json output = %q", stdout.String())
	}

	stdout.Reset()
	Format = "table"
	if err := PrintResult(nil, []string{"TYPE", "N"}, rows); err != nil {
		t.Fatalf("PrintResult() error: %v", err)
	}
	if !strings.Contains(stdout.String(), "TYPE") {
		t.Errorf("table output = %q", stdout.String())
	}
}

func TestSuccessAndWarn(t *testing.T) {
	stdout, stderr := capture(t)

	Success("uploaded %d questions", 3)
	Warn("%d media errors", 1)
	if got := stdout.String(); got != "✓ uploaded 3 questions\n" {
		t.Errorf("Success wrote %q", got)
	}
	if got := stderr.String(); got != "⚠ 1 media errors\n" {
		t.Errorf("Warn wrote %q", got)
	}

	stdout.Reset()
	Format = "json"
	Success("quiet")
	if stdout.Len() != 0 {
		t.Errorf("Success wrote %q in json mode", stdout.String())
	}
}

func TestProgress(t *testing.T) {
	_, stderr := capture(t)

	p := NewProgress("uploading")
	p.Update(1, 2)
	p.Update(2, 2)
	p.Finish()
	if stderr.Len() == 0 {
		t.Error("progress bar wrote nothing")
	}

	stderr.Reset()
	Format = "json"
	q := NewProgress("uploading")
	q.Update(1, 2)
	q.Finish()
	if stderr.Len() != 0 {
		t.Errorf("progress bar wrote %q in json mode", stderr.String())
	}
}
