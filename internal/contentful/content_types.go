package contentful

import (
	"context"
	"fmt"
	"net/http"
)

// GetContentType fetches a content type by id. A missing content type
// yields an error for which IsNotFound is true.
func (c *Client) GetContentType(ctx context.Context, id string) (*ContentType, error) {
	var ct ContentType
	if err := c.do(ctx, request{method: http.MethodGet, path: "/content_types/" + id}, &ct); err != nil {
		return nil, fmt.Errorf("get content type %s: %w", id, err)
	}
	return &ct, nil
}

// CreateContentType creates a content type with a caller-chosen id.
func (c *Client) CreateContentType(ctx context.Context, id, name string, fields []ContentTypeField) (*ContentType, error) {
	body := map[string]any{"name": name, "fields": fields}
	var ct ContentType
	if err := c.do(ctx, request{method: http.MethodPut, path: "/content_types/" + id, body: body}, &ct); err != nil {
		return nil, fmt.Errorf("create content type %s: %w", id, err)
	}
	return &ct, nil
}

// PublishContentType activates the given version of a content type.
func (c *Client) PublishContentType(ctx context.Context, ct *ContentType) (*ContentType, error) {
	var published ContentType
	r := request{method: http.MethodPut, path: "/content_types/" + ct.Sys.ID + "/published", version: ct.Sys.Version}
	if err := c.do(ctx, r, &published); err != nil {
		return nil, fmt.Errorf("publish content type %s: %w", ct.Sys.ID, err)
	}
	return &published, nil
}

// UnpublishContentType deactivates a content type and returns its new state.
func (c *Client) UnpublishContentType(ctx context.Context, ct *ContentType) (*ContentType, error) {
	var unpublished ContentType
	r := request{method: http.MethodDelete, path: "/content_types/" + ct.Sys.ID + "/published", version: ct.Sys.Version}
	if err := c.do(ctx, r, &unpublished); err != nil {
		return nil, fmt.Errorf("unpublish content type %s: %w", ct.Sys.ID, err)
	}
	if unpublished.Sys.ID == "" {
		unpublished = *ct
	}
	return &unpublished, nil
}

// DeleteContentType deletes an unpublished content type.
func (c *Client) DeleteContentType(ctx context.Context, ct *ContentType) error {
	r := request{method: http.MethodDelete, path: "/content_types/" + ct.Sys.ID, version: ct.Sys.Version}
	if err := c.do(ctx, r, nil); err != nil {
		return fmt.Errorf("delete content type %s: %w", ct.Sys.ID, err)
	}
	return nil
}
