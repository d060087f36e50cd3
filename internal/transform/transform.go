// Package transform maps WordPress questions onto Contentful entry fields,
// uploading the question's media as assets on the way.
package transform

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/openjobspec/wp2ctf/internal/cache"
	"github.com/openjobspec/wp2ctf/internal/contentful"
	"github.com/openjobspec/wp2ctf/internal/media"
	"github.com/openjobspec/wp2ctf/internal/queue"
	"github.com/openjobspec/wp2ctf/internal/store"
	"github.com/openjobspec/wp2ctf/internal/wordpress"
)

// Uploader publishes a remote file as an asset.
type Uploader interface {
	UploadAsset(ctx context.Context, file contentful.AssetFile) (*contentful.Asset, error)
}

// Options configures a Transformer. Zero values are usable: no pacing,
// serialized uploads, no cache, errors only logged.
type Options struct {
	Locale      string
	Pacer       *queue.Pacer
	Concurrency int
	Cache       cache.AssetCache
	Sink        store.ErrorSink
}

// Transformer converts questions into entry fields.
type Transformer struct {
	up          Uploader
	locale      string
	pacer       *queue.Pacer
	concurrency int
	cache       cache.AssetCache
	sink        store.ErrorSink
}

func New(up Uploader, opts Options) *Transformer {
	if opts.Locale == "" {
		opts.Locale = "en-US"
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Transformer{
		up:          up,
		locale:      opts.Locale,
		pacer:       opts.Pacer,
		concurrency: opts.Concurrency,
		cache:       opts.Cache,
		sink:        opts.Sink,
	}
}

var questionTypes = map[string]string{
	"angiogram": "Angiogram",
	"ecg":       "ECG",
	"echo":      "ECHO",
	"cv_image":  "QBank",
}

// QuestionType returns the display label for a WordPress question type.
// Unknown types are passed through unchanged.
func QuestionType(t string) string {
	if label, ok := questionTypes[t]; ok {
		return label
	}
	return t
}

// Transform builds the entry fields for q. Media that cannot be parsed or
// uploaded is reported to the sink and left out; only a cancelled context
// fails the whole record.
func (t *Transformer) Transform(ctx context.Context, q wordpress.Question) (contentful.Fields, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	refs := t.references(q)

	ids := make([]string, len(refs))
	var g errgroup.Group
	g.SetLimit(t.concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ids[i] = t.resolve(ctx, q.ID, ref)
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	links := map[media.Kind][]contentful.Link{}
	for i, ref := range refs {
		if ids[i] != "" {
			links[ref.Kind] = append(links[ref.Kind], contentful.AssetLink(ids[i]))
		}
	}

	fields := contentful.Fields{}
	fields.Set("questionTitle", t.locale, q.Title)
	fields.Set("questionType", t.locale, QuestionType(q.Type))
	fields.Set("wordpressId", t.locale, q.ID)
	fields.Set("explanation", t.locale, q.Explanation)
	fields.Set("secondaryText", t.locale, q.SecondaryText)
	for _, k := range media.Kinds {
		l := links[k]
		if l == nil {
			l = []contentful.Link{}
		}
		fields.Set(string(k), t.locale, l)
	}
	return fields, nil
}

// references parses every present media field in resolution order.
func (t *Transformer) references(q wordpress.Question) []media.Reference {
	var refs []media.Reference
	for _, k := range media.Kinds {
		for _, field := range media.Fields(k) {
			raw := q.MediaValue(field)
			if raw == "" {
				continue
			}
			ref, err := media.Parse(raw)
			if err != nil {
				t.report(q.ID, field, raw, err)
				continue
			}
			ref.Kind = k
			ref.Field = field
			refs = append(refs, ref)
		}
	}
	return refs
}

// resolve returns the asset id for ref, uploading it unless cached. It
// returns "" when the upload failed.
func (t *Transformer) resolve(ctx context.Context, questionID int, ref media.Reference) string {
	if t.cache != nil {
		id, ok, err := t.cache.Get(ctx, ref.URL)
		if err != nil {
			slog.Warn("asset cache lookup failed", "url", ref.URL, "error", err)
		} else if ok {
			slog.Debug("reusing cached asset", "asset_id", id, "url", ref.URL)
			return id
		}
	}

	asset, err := t.up.UploadAsset(ctx, contentful.AssetFile{
		ContentType: ref.ContentType,
		FileName:    ref.FileName,
		Upload:      ref.URL,
	})
	// Cancellation surfaces through the caller's ctx check.
	_ = t.pacer.Wait(ctx)
	if err != nil {
		t.report(questionID, ref.Field, ref.URL, err)
		return ""
	}

	if t.cache != nil {
		if err := t.cache.Set(ctx, ref.URL, asset.Sys.ID); err != nil {
			slog.Warn("asset cache write failed", "url", ref.URL, "error", err)
		}
	}
	return asset.Sys.ID
}

func (t *Transformer) report(questionID int, field, url string, err error) {
	if t.sink == nil {
		slog.Warn("media error", "question_id", questionID, "field", field, "url", url, "error", err)
		return
	}
	t.sink.RecordMediaError(store.MediaError{
		QuestionID: questionID,
		Field:      field,
		URL:        url,
		Reason:     err.Error(),
	})
}
