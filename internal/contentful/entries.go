package contentful

import (
	"context"
	"fmt"
	"net/http"
)

// CreateEntry creates a draft entry of the given content type.
func (c *Client) CreateEntry(ctx context.Context, contentType string, fields Fields) (*Entry, error) {
	var entry Entry
	r := request{
		method:      http.MethodPost,
		path:        "/entries",
		contentType: contentType,
		body:        map[string]any{"fields": fields},
	}
	if err := c.do(ctx, r, &entry); err != nil {
		return nil, fmt.Errorf("create %s entry: %w", contentType, err)
	}
	return &entry, nil
}

// PublishEntry publishes the given version of an entry.
func (c *Client) PublishEntry(ctx context.Context, e *Entry) (*Entry, error) {
	var published Entry
	r := request{method: http.MethodPut, path: "/entries/" + e.Sys.ID + "/published", version: e.Sys.Version}
	if err := c.do(ctx, r, &published); err != nil {
		return nil, fmt.Errorf("publish entry %s: %w", e.Sys.ID, err)
	}
	return &published, nil
}
