package commands

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/openjobspec/wp2ctf/internal/config"
	"github.com/openjobspec/wp2ctf/internal/migrate"
	"github.com/openjobspec/wp2ctf/internal/output"
	"github.com/openjobspec/wp2ctf/internal/queue"
	"github.com/openjobspec/wp2ctf/internal/store"
)

// Migrate runs `wp2ctf [wordpress|contentful|both] [full|sample]`.
func Migrate(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	pace := fs.Duration("pace", cfg.PaceInterval, "Delay after each API call")
	sampleLimit := fs.Int("sample-limit", cfg.SampleLimit, "Records uploaded per type in sample mode")
	types := fs.String("types", "", "Comma-separated question types (default: $WP_QUESTION_TYPES)")

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) > 2 {
		return fmt.Errorf("too many arguments: %v\n\nUsage:\n  wp2ctf [wordpress|contentful|both] [full|sample]", positional)
	}

	mode, scope := migrate.ModeWordPress, migrate.ScopeSample
	if len(positional) > 0 {
		if mode, err = migrate.ParseMode(positional[0]); err != nil {
			return err
		}
	}
	if len(positional) > 1 {
		if scope, err = migrate.ParseScope(positional[1]); err != nil {
			return err
		}
	}

	questionTypes := cfg.QuestionTypes
	if *types != "" {
		questionTypes = splitList(*types)
	}

	driverOpts := migrate.Options{
		QuestionTypes:    questionTypes,
		PageSize:         cfg.WPPageSize,
		SamplePageSize:   cfg.WPSamplePageSize,
		SampleLimit:      max(*sampleLimit, 0),
		ContentType:      cfg.CTFContentType,
		Locale:           cfg.CTFLocale,
		Pacer:            queue.NewPacer(*pace),
		MediaConcurrency: cfg.MediaConcurrency,
	}

	var d *migrate.Driver
	st := store.New(cfg.DataDir)
	switch mode {
	case migrate.ModeWordPress:
		if err := cfg.ValidateWordPress(); err != nil {
			return err
		}
		d = migrate.NewDriver(st, newWordPress(cfg), nil, driverOpts)
	case migrate.ModeContentful, migrate.ModeBoth:
		if err := cfg.ValidateContentful(); err != nil {
			return err
		}
		var wp migrate.WordPress
		if mode == migrate.ModeBoth {
			if err := cfg.ValidateWordPress(); err != nil {
				return err
			}
			wp = newWordPress(cfg)
		}
		assetCache, closeCache := newAssetCache(ctx, cfg)
		defer closeCache()
		driverOpts.Cache = assetCache

		progress := output.NewProgress("uploading")
		defer progress.Finish()
		driverOpts.Progress = progress.Update

		d = migrate.NewDriver(st, wp, newContentful(cfg), driverOpts)
	}

	report, err := d.Run(ctx, mode, scope)
	if err != nil {
		return err
	}
	if err := printReport(report); err != nil {
		return err
	}
	if report.Failed() {
		return ErrPartialFailure
	}
	return nil
}

func printReport(r *migrate.Report) error {
	return output.PrintResult(r, []string{"TYPE", "FETCHED", "ENQUEUED", "SUCCEEDED", "FAILED", "ERROR"}, func() [][]string {
		var rows [][]string
		for _, t := range r.Types {
			rows = append(rows, []string{
				t.Type,
				strconv.Itoa(t.Fetched),
				strconv.Itoa(t.Enqueued),
				strconv.Itoa(t.Succeeded),
				strconv.Itoa(t.Failed),
				t.Error,
			})
		}
		total := r.Totals()
		rows = append(rows, []string{
			"total",
			strconv.Itoa(total.Fetched),
			strconv.Itoa(total.Enqueued),
			strconv.Itoa(total.Succeeded),
			strconv.Itoa(total.Failed),
			fmt.Sprintf("%d media errors", r.MediaErrors),
		})
		return rows
	})
}
