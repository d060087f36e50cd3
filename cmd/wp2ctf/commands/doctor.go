package commands

import (
	"context"
	"flag"
	"fmt"

	"github.com/openjobspec/wp2ctf/internal/cache"
	"github.com/openjobspec/wp2ctf/internal/config"
	"github.com/openjobspec/wp2ctf/internal/doctor"
	"github.com/openjobspec/wp2ctf/internal/output"
)

// Doctor runs `wp2ctf doctor`: preflight checks against both APIs.
func Doctor(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	verbose := fs.Bool("verbose", false, "Show all checks including passed")
	fs.Usage = func() {
		fmt.Print(`Usage: wp2ctf doctor [flags]

Check configuration and connectivity before migrating.

Flags:
  --verbose     Show all checks including passed ones
`)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	var wp doctor.WordPress
	if cfg.ValidateWordPress() == nil {
		wp = newWordPress(cfg)
	}
	var ctf doctor.Contentful
	if cfg.ValidateContentful() == nil {
		ctf = newContentful(cfg)
	}
	var redisPing func(context.Context) error
	if cfg.RedisURL != "" {
		redisPing = func(ctx context.Context) error {
			rc, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.CTFSpaceID, cfg.CTFEnv)
			if err != nil {
				return err
			}
			return rc.Close()
		}
	}

	report := doctor.NewAuditor(cfg, wp, ctf, redisPing).Run(ctx)

	if output.Format == "json" {
		if err := output.JSON(report); err != nil {
			return err
		}
	} else {
		for _, c := range report.Checks {
			switch c.Severity {
			case doctor.SevPass:
				if *verbose {
					fmt.Fprintf(output.Stdout, "  ✅ %s: %s\n", c.Name, c.Message)
				}
			case doctor.SevSkip:
				if *verbose {
					fmt.Fprintf(output.Stdout, "  ➖ %s: %s\n", c.Name, c.Message)
				}
			case doctor.SevWarning:
				fmt.Fprintf(output.Stdout, "  ⚠️  %s: %s\n", c.Name, c.Message)
			case doctor.SevCritical:
				fmt.Fprintf(output.Stdout, "  ❌ %s: %s\n", c.Name, c.Message)
			}
			if c.Fix != "" && c.Severity != doctor.SevPass {
				fmt.Fprintf(output.Stdout, "     fix: %s\n", c.Fix)
			}
		}
		fmt.Fprintf(output.Stdout, "\nResults: %d passed, %d warnings, %d failed\n", report.Passed, report.Warnings, report.Critical)
	}

	if report.Failed() {
		return fmt.Errorf("%d check(s) failed", report.Critical)
	}
	return nil
}
