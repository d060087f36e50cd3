// Package migrate runs the two migration phases: fetching questions from
// WordPress into hand-off files, and uploading them to Contentful through a
// paced task queue.
package migrate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/openjobspec/wp2ctf/internal/cache"
	"github.com/openjobspec/wp2ctf/internal/contentful"
	"github.com/openjobspec/wp2ctf/internal/queue"
	"github.com/openjobspec/wp2ctf/internal/store"
	"github.com/openjobspec/wp2ctf/internal/transform"
	"github.com/openjobspec/wp2ctf/internal/wordpress"
)

// Contentful is the subset of the CMA client used by the upload phase.
type Contentful interface {
	transform.Uploader
	GetEnvironment(ctx context.Context) error
	CreateEntry(ctx context.Context, contentType string, fields contentful.Fields) (*contentful.Entry, error)
	PublishEntry(ctx context.Context, e *contentful.Entry) (*contentful.Entry, error)
}

// WordPress is the source side of the fetch phase.
type WordPress interface {
	wordpress.PageFetcher
	Ping(ctx context.Context) error
}

// Options configures a Driver.
type Options struct {
	QuestionTypes    []string
	PageSize         int
	SamplePageSize   int
	SampleLimit      int
	ContentType      string
	Locale           string
	Pacer            *queue.Pacer
	MediaConcurrency int
	Cache            cache.AssetCache
	RunID            string

	// Progress, when set, is called after each upload task with the number
	// of finished tasks and the queue size.
	Progress func(done, total int)
}

// Driver wires the WordPress source, the hand-off store and Contentful.
type Driver struct {
	opts  Options
	store *store.Store
	wp    WordPress
	ctf   Contentful
}

// NewDriver creates a driver. wp may be nil when only uploading and ctf may
// be nil when only fetching.
func NewDriver(st *store.Store, wp WordPress, ctf Contentful, opts Options) *Driver {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.ContentType == "" {
		opts.ContentType = "question"
	}
	return &Driver{opts: opts, store: st, wp: wp, ctf: ctf}
}

// Run executes the phases selected by mode. The returned error is fatal
// (e.g. WordPress or the Contentful environment is unreachable); per-record and
// per-type failures are only recorded in the report.
func (d *Driver) Run(ctx context.Context, mode Mode, scope Scope) (*Report, error) {
	report := newReport(d.opts.RunID, mode, scope, d.opts.QuestionTypes)
	slog.Info("migration started", "run_id", report.RunID, "mode", mode, "scope", scope)

	if mode == ModeWordPress || mode == ModeBoth {
		if err := d.fetch(ctx, scope, report); err != nil {
			report.finish(PhaseFailed)
			return report, err
		}
	}
	if mode == ModeContentful || mode == ModeBoth {
		if err := d.upload(ctx, scope, report); err != nil {
			report.finish(PhaseFailed)
			return report, err
		}
	}

	report.finish(PhaseComplete)
	total := report.Totals()
	slog.Info("migration finished",
		"run_id", report.RunID,
		"fetched", total.Fetched,
		"succeeded", total.Succeeded,
		"failed", total.Failed,
		"media_errors", report.MediaErrors,
	)
	return report, nil
}

func (d *Driver) fetch(ctx context.Context, scope Scope, report *Report) error {
	if d.wp == nil {
		return fmt.Errorf("no WordPress client configured")
	}
	report.Phase = PhaseFetching

	if err := d.wp.Ping(ctx); err != nil {
		return fmt.Errorf("check WordPress: %w", err)
	}

	pageSize, maxPages := d.opts.PageSize, 0
	if scope == ScopeSample {
		pageSize, maxPages = d.opts.SamplePageSize, 1
	}

	for _, tr := range report.Types {
		questions, err := wordpress.Paginate(ctx, d.wp, tr.Type, pageSize, maxPages)
		if err != nil {
			tr.Error = err.Error()
			slog.Error("fetch failed", "question_type", tr.Type, "error", err)
			continue
		}
		if err := d.store.WriteRecords(string(scope), tr.Type, questions); err != nil {
			tr.Error = err.Error()
			slog.Error("write records failed", "question_type", tr.Type, "error", err)
			continue
		}
		tr.Fetched = len(questions)
	}
	return nil
}

// pending ties an enqueued task back to its record.
type pending struct {
	report *TypeReport
	id     int
}

func (d *Driver) upload(ctx context.Context, scope Scope, report *Report) error {
	if d.ctf == nil {
		return fmt.Errorf("no Contentful client configured")
	}
	report.Phase = PhaseUploading

	if err := d.ctf.GetEnvironment(ctx); err != nil {
		return fmt.Errorf("check Contentful environment: %w", err)
	}

	sink := store.NewFileSink(d.store.MediaErrorsPath(string(scope)), d.opts.RunID)
	tr := transform.New(d.ctf, transform.Options{
		Locale:      d.opts.Locale,
		Pacer:       d.opts.Pacer,
		Concurrency: d.opts.MediaConcurrency,
		Cache:       d.opts.Cache,
		Sink:        sink,
	})

	q := queue.New(d.opts.Pacer)
	var tasks []pending
	for _, typ := range report.Types {
		if typ.Error != "" {
			// Fetching this type failed earlier in the run; its hand-off
			// file is stale or missing.
			continue
		}
		questions, err := d.store.ReadRecords(string(scope), typ.Type)
		if err != nil {
			typ.Error = err.Error()
			slog.Error("read records failed", "question_type", typ.Type, "error", err)
			continue
		}
		if scope == ScopeSample && len(questions) > d.opts.SampleLimit {
			questions = questions[:d.opts.SampleLimit]
		}
		for _, question := range questions {
			q.Enqueue(fmt.Sprintf("%s/%d", typ.Type, question.ID), d.uploadTask(tr, question))
			tasks = append(tasks, pending{report: typ, id: question.ID})
		}
		typ.Enqueued = len(questions)
		slog.Info("enqueued questions", "question_type", typ.Type, "count", len(questions))
	}

	total := q.Len()
	q.OnResult = func(r queue.Result) {
		if r.OK() {
			slog.Info("uploaded question", "task", r.Name, "position", r.Position, "total", total, "duration", r.Duration)
		} else {
			slog.Error("upload failed", "task", r.Name, "position", r.Position, "total", total, "error", r.Err)
		}
		if d.opts.Progress != nil {
			d.opts.Progress(r.Position, total)
		}
	}

	for _, r := range q.Drain(ctx) {
		p := tasks[r.Position-1]
		if r.OK() {
			p.report.Succeeded++
			continue
		}
		p.report.Failed++
		p.report.FailedIDs = append(p.report.FailedIDs, p.id)
	}

	for _, typ := range report.Types {
		if typ.Error != "" {
			continue
		}
		if err := d.store.WriteFailedIDs(string(scope), typ.Type, typ.FailedIDs); err != nil {
			slog.Error("write failed ids", "question_type", typ.Type, "error", err)
		}
	}

	report.MediaErrors = sink.Count()
	return nil
}

func (d *Driver) uploadTask(tr *transform.Transformer, q wordpress.Question) queue.Task {
	return func(ctx context.Context) error {
		fields, err := tr.Transform(ctx, q)
		if err != nil {
			return fmt.Errorf("transform question %d: %w", q.ID, err)
		}
		entry, err := d.ctf.CreateEntry(ctx, d.opts.ContentType, fields)
		if err != nil {
			return err
		}
		if _, err := d.ctf.PublishEntry(ctx, entry); err != nil {
			return err
		}
		return nil
	}
}
