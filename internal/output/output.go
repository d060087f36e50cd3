package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
)

// Format controls the output format ("table" or "json").
var Format = "table"

// Stdout and Stderr are swapped out in tests.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// JSON prints data as formatted JSON.
func JSON(data any) error {
	enc := json.NewEncoder(Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// Table prints rows in a table format with headers.
func Table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	fmt.Fprintln(w, strings.Repeat("─", len(headers)*12))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}

// PrintResult prints data as JSON in json mode, or as a table built by
// toRows otherwise.
func PrintResult(data any, headers []string, toRows func() [][]string) error {
	if Format == "json" {
		return JSON(data)
	}
	Table(headers, toRows())
	return nil
}

// Success prints a success message.
func Success(format string, args ...any) {
	if Format == "json" {
		return
	}
	fmt.Fprintf(Stdout, "✓ "+format+"\n", args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	fmt.Fprintf(Stderr, "⚠ "+format+"\n", args...)
}

// Progress draws a bar on stderr whose size is learned from the first
// update. It draws nothing in json mode.
type Progress struct {
	description string
	bar         *progressbar.ProgressBar
}

func NewProgress(description string) *Progress {
	return &Progress{description: description}
}

// Update moves the bar to done out of total.
func (p *Progress) Update(done, total int) {
	if Format == "json" {
		return
	}
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(Stderr),
			progressbar.OptionSetDescription(p.description),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = p.bar.Set(done)
}

// Finish completes and clears the bar.
func (p *Progress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
