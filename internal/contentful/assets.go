package contentful

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/openjobspec/wp2ctf/internal/queue"
)

// CreateAsset creates a draft asset whose file Contentful will fetch from
// file.Upload.
func (c *Client) CreateAsset(ctx context.Context, title string, file AssetFile) (*Asset, error) {
	body := map[string]any{"fields": AssetFields{
		Title: map[string]string{c.locale: title},
		File:  map[string]AssetFile{c.locale: file},
	}}
	var asset Asset
	if err := c.do(ctx, request{method: http.MethodPost, path: "/assets", body: body}, &asset); err != nil {
		return nil, fmt.Errorf("create asset %s: %w", file.FileName, err)
	}
	return &asset, nil
}

// GetAsset fetches an asset by id.
func (c *Client) GetAsset(ctx context.Context, id string) (*Asset, error) {
	var asset Asset
	if err := c.do(ctx, request{method: http.MethodGet, path: "/assets/" + id}, &asset); err != nil {
		return nil, fmt.Errorf("get asset %s: %w", id, err)
	}
	return &asset, nil
}

// ProcessAsset asks Contentful to fetch and process the asset's file.
// Processing is asynchronous; see WaitForAsset.
func (c *Client) ProcessAsset(ctx context.Context, a *Asset) error {
	path := fmt.Sprintf("/assets/%s/files/%s/process", a.Sys.ID, c.locale)
	if err := c.do(ctx, request{method: http.MethodPut, path: path, version: a.Sys.Version}, nil); err != nil {
		return fmt.Errorf("process asset %s: %w", a.Sys.ID, err)
	}
	return nil
}

// WaitForAsset polls the asset until its file has been processed.
func (c *Client) WaitForAsset(ctx context.Context, id string) (*Asset, error) {
	for attempt := 1; attempt <= c.pollAttempts; attempt++ {
		asset, err := c.GetAsset(ctx, id)
		if err != nil {
			return nil, err
		}
		if f, ok := asset.Fields.File[c.locale]; ok && f.URL != "" {
			return asset, nil
		}
		if err := queue.Delay(ctx, c.pollInterval); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("asset %s not processed after %d attempts", id, c.pollAttempts)
}

// PublishAsset publishes the given version of an asset.
func (c *Client) PublishAsset(ctx context.Context, a *Asset) (*Asset, error) {
	var published Asset
	path := "/assets/" + a.Sys.ID + "/published"
	if err := c.do(ctx, request{method: http.MethodPut, path: path, version: a.Sys.Version}, &published); err != nil {
		return nil, fmt.Errorf("publish asset %s: %w", a.Sys.ID, err)
	}
	return &published, nil
}

// UploadAsset creates, processes and publishes an asset in one go.
func (c *Client) UploadAsset(ctx context.Context, file AssetFile) (*Asset, error) {
	slog.Info("uploading media", "file_name", file.FileName, "content_type", file.ContentType, "url", file.Upload)

	asset, err := c.CreateAsset(ctx, file.FileName, file)
	if err != nil {
		return nil, err
	}
	if err := c.ProcessAsset(ctx, asset); err != nil {
		return nil, err
	}
	processed, err := c.WaitForAsset(ctx, asset.Sys.ID)
	if err != nil {
		return nil, err
	}
	published, err := c.PublishAsset(ctx, processed)
	if err != nil {
		return nil, err
	}

	slog.Info("uploaded media", "asset_id", published.Sys.ID, "file_name", file.FileName)
	return published, nil
}
