package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/openjobspec/wp2ctf/cmd/wp2ctf/commands"
	"github.com/openjobspec/wp2ctf/internal/config"
	"github.com/openjobspec/wp2ctf/internal/output"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Global flags
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--data":
			if i+1 < len(args) {
				cfg.DataDir = args[i+1]
				args = append(args[:i], args[i+2:]...)
				i--
			}
		case "--json":
			output.Format = "json"
			args = append(args[:i], args[i+1:]...)
			i--
		case "--version", "-v":
			fmt.Println("wp2ctf version", version)
			return 0
		case "--help", "-h":
			printUsage()
			return 0
		}
	}

	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := ""
	if len(args) > 0 {
		cmd = args[0]
	}
	switch cmd {
	case "fields":
		err = commands.Fields(ctx, cfg, args[1:])
	case "doctor":
		err = commands.Doctor(ctx, cfg, args[1:])
	case "failed":
		err = commands.Failed(cfg, args[1:])
	case "help":
		printUsage()
		return 0
	default:
		err = commands.Migrate(ctx, cfg, args)
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, commands.ErrPartialFailure):
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
}

func setupLogging(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if output.Format == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

func printUsage() {
	fmt.Print(`wp2ctf - migrate WordPress questions to Contentful

Usage:
  wp2ctf [global flags] [wordpress|contentful|both] [full|sample] [flags]
  wp2ctf [global flags] <command> [args]

Modes:
  wordpress    Fetch questions into <data>/<scope>/<type>.json (default)
  contentful   Upload the fetched questions as Contentful entries
  both         Fetch, then upload

Scopes:
  sample       One page per type, first 2 records uploaded (default; alias: test)
  full         Every page of every type

Migration Flags:
  --pace <duration>     Delay after each API call (default: $MIGRATE_PACE_INTERVAL)
  --sample-limit <n>    Records uploaded per type in sample mode
  --types <list>        Comma-separated question types

Commands:
  fields <type>  Rebuild score content types from <data>/fields/<type>_formatted.json
  failed [scope] List question ids that failed to upload
  doctor         Check configuration and connectivity

Global Flags:
  --data <dir>   Data directory (default: $MIGRATE_DATA_DIR or data)
  --json         Output summary and logs as JSON
  --version      Show version
  --help         Show help

Environment Variables:
  WP_HOST, WP_SCHEME, WP_MIGRATION_ENDPOINT, WP_REST_API_USER, WP_REST_API_PW
  WP_PAGE_SIZE, WP_SAMPLE_PAGE_SIZE, WP_QUESTION_TYPES
  CTF_TOKEN, CTF_SPACE_ID, CTF_ENV, CTF_LOCALE, CTF_BASE_URL, CTF_CONTENT_TYPE
  MIGRATE_DATA_DIR, MIGRATE_PACE_INTERVAL, MIGRATE_SAMPLE_LIMIT,
  MIGRATE_MEDIA_CONCURRENCY, MIGRATE_HTTP_TIMEOUT, MIGRATE_REDIS_URL, LOG_LEVEL
  A .env file in the working directory is loaded first.

Exit codes:
  0  success
  1  setup or usage error
  2  finished, but some questions, media or types failed
`)
}
