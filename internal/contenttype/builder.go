package contenttype

import (
	"context"
	"log/slog"

	"github.com/openjobspec/wp2ctf/internal/contentful"
	"github.com/openjobspec/wp2ctf/internal/queue"
)

// Client is the subset of the CMA client the builder needs.
type Client interface {
	GetContentType(ctx context.Context, id string) (*contentful.ContentType, error)
	CreateContentType(ctx context.Context, id, name string, fields []contentful.ContentTypeField) (*contentful.ContentType, error)
	PublishContentType(ctx context.Context, ct *contentful.ContentType) (*contentful.ContentType, error)
	UnpublishContentType(ctx context.Context, ct *contentful.ContentType) (*contentful.ContentType, error)
	DeleteContentType(ctx context.Context, ct *contentful.ContentType) error
}

// Builder replaces content types with the groups of a definition.
type Builder struct {
	client Client
	pacer  *queue.Pacer

	// OnResult, when set, observes each finished task.
	OnResult func(queue.Result)
}

func NewBuilder(c Client, p *queue.Pacer) *Builder {
	return &Builder{client: c, pacer: p}
}

// Rebuild deletes and recreates one content type per group, one paced API
// task at a time. Definitions must be validated first.
func (b *Builder) Rebuild(ctx context.Context, def *Definition) []queue.Result {
	q := queue.New(b.pacer)
	q.OnResult = func(r queue.Result) {
		if r.OK() {
			slog.Info("content type task done", "task", r.Name)
		} else {
			slog.Error("content type task failed", "task", r.Name, "error", r.Err)
		}
		if b.OnResult != nil {
			b.OnResult(r)
		}
	}
	for _, g := range def.Groups {
		q.Enqueue("delete "+g.ID, b.deleteTask(g.ID))
		q.Enqueue("create "+g.ID, b.createTask(g))
	}
	return q.Drain(ctx)
}

func (b *Builder) deleteTask(id string) queue.Task {
	return func(ctx context.Context) error {
		ct, err := b.client.GetContentType(ctx, id)
		if contentful.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if ct.Published() {
			if ct, err = b.client.UnpublishContentType(ctx, ct); err != nil {
				return err
			}
		}
		if err := b.client.DeleteContentType(ctx, ct); err != nil {
			return err
		}
		slog.Info("deleted content type", "id", id)
		return nil
	}
}

func (b *Builder) createTask(g Group) queue.Task {
	return func(ctx context.Context) error {
		ct, err := b.client.CreateContentType(ctx, g.ID, g.Label, g.Fields())
		if err != nil {
			return err
		}
		if _, err := b.client.PublishContentType(ctx, ct); err != nil {
			return err
		}
		slog.Info("created content type", "id", g.ID, "fields", len(g.Data))
		return nil
	}
}
