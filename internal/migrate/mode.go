package migrate

import "fmt"

// Mode selects which phases a run executes.
type Mode string

const (
	ModeWordPress  Mode = "wordpress"
	ModeContentful Mode = "contentful"
	ModeBoth       Mode = "both"
)

// ParseMode validates a mode argument.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeWordPress, ModeContentful, ModeBoth:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q (expected wordpress, contentful or both)", s)
}

// Scope selects the full data set or a small sample, and names the data
// directory the run reads and writes.
type Scope string

const (
	ScopeFull   Scope = "full"
	ScopeSample Scope = "sample"
)

// ParseScope validates a scope argument. "test" is accepted as an alias
// for sample.
func ParseScope(s string) (Scope, error) {
	switch s {
	case "full":
		return ScopeFull, nil
	case "sample", "test":
		return ScopeSample, nil
	}
	return "", fmt.Errorf("unknown scope %q (expected full or sample)", s)
}
