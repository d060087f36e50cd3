package commands

import (
	"context"
	"flag"
	"fmt"

	"github.com/openjobspec/wp2ctf/internal/config"
	"github.com/openjobspec/wp2ctf/internal/contenttype"
	"github.com/openjobspec/wp2ctf/internal/output"
	"github.com/openjobspec/wp2ctf/internal/queue"
	"github.com/openjobspec/wp2ctf/internal/store"
)

// Fields runs `wp2ctf fields <questionType>`: it replaces the score content
// types defined in <data>/fields/<questionType>_formatted.{json,yaml,yml}.
func Fields(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("fields", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "Validate the definition without calling Contentful")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("missing question type\n\nUsage:\n  wp2ctf fields <questionType> [--dry-run]")
	}
	questionType := positional[0]

	def, path, err := contenttype.Load(store.New(cfg.DataDir).FieldsPath(questionType))
	if err != nil {
		return err
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid field groups in %s:\n%w", path, err)
	}

	fieldCount := 0
	for _, g := range def.Groups {
		fieldCount += len(g.Data)
	}
	if *dryRun {
		output.Success("%s: %d groups, %d fields are valid", path, len(def.Groups), fieldCount)
		return nil
	}

	if err := cfg.ValidateContentful(); err != nil {
		return err
	}

	b := contenttype.NewBuilder(newContentful(cfg), queue.NewPacer(cfg.PaceInterval))
	progress := output.NewProgress("content types")
	total := 2 * len(def.Groups)
	b.OnResult = func(r queue.Result) { progress.Update(r.Position, total) }
	results := b.Rebuild(ctx, def)
	progress.Finish()

	failed := queue.Failed(results)
	if output.Format == "json" {
		type taskResult struct {
			Task  string `json:"task"`
			Error string `json:"error,omitempty"`
		}
		var out []taskResult
		for _, r := range results {
			tr := taskResult{Task: r.Name}
			if r.Err != nil {
				tr.Error = r.Err.Error()
			}
			out = append(out, tr)
		}
		if err := output.JSON(out); err != nil {
			return err
		}
	} else {
		for _, r := range failed {
			output.Warn("%s: %v", r.Name, r.Err)
		}
		output.Success("Rebuilt %d content types (%d fields) from %s", len(def.Groups), fieldCount, path)
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d content type tasks failed: %w", len(failed), len(results), ErrPartialFailure)
	}
	return nil
}
