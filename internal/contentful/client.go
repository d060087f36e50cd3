// Package contentful is a small client for the Contentful Content
// Management API covering assets, entries and content types.
package contentful

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const contentTypeJSON = "application/vnd.contentful.management.v1+json"

// Options configures a Client.
type Options struct {
	BaseURL     string
	Token       string
	SpaceID     string
	Environment string
	Locale      string
	Timeout     time.Duration

	// PollInterval and PollAttempts bound the wait for asset processing.
	PollInterval time.Duration
	PollAttempts int
}

// Client wraps calls to one space environment of the CMA.
type Client struct {
	http         *resty.Client
	envPath      string
	locale       string
	pollInterval time.Duration
	pollAttempts int
}

// New creates a CMA client.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.contentful.com"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Locale == "" {
		opts.Locale = "en-US"
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if opts.PollAttempts <= 0 {
		opts.PollAttempts = 20
	}

	rc := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetAuthToken(opts.Token).
		SetHeader("Content-Type", contentTypeJSON).
		SetHeader("Accept", "application/json")

	return &Client{
		http:         rc,
		envPath:      fmt.Sprintf("/spaces/%s/environments/%s", opts.SpaceID, opts.Environment),
		locale:       opts.Locale,
		pollInterval: opts.PollInterval,
		pollAttempts: opts.PollAttempts,
	}
}

// APIError is a non-2xx CMA response.
type APIError struct {
	StatusCode int
	ID         string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("HTTP %d: %s: %s", e.StatusCode, e.ID, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a CMA 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type errorBody struct {
	Sys struct {
		ID string `json:"id"`
	} `json:"sys"`
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
}

type request struct {
	method      string
	path        string
	version     int
	contentType string
	body        any
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	req := c.http.R().SetContext(ctx)
	if r.version > 0 {
		req.SetHeader("X-Contentful-Version", strconv.Itoa(r.version))
	}
	if r.contentType != "" {
		req.SetHeader("X-Contentful-Content-Type", r.contentType)
	}
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(data)
	}

	res, err := req.Execute(r.method, c.envPath+r.path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if !res.IsSuccess() {
		apiErr := &APIError{StatusCode: res.StatusCode(), Message: res.String()}
		var body errorBody
		if json.Unmarshal(res.Body(), &body) == nil && body.Sys.ID != "" {
			apiErr.ID = body.Sys.ID
			apiErr.Message = body.Message
			apiErr.RequestID = body.RequestID
		}
		return apiErr
	}

	if out != nil && len(res.Body()) > 0 {
		if err := json.Unmarshal(res.Body(), out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// GetEnvironment verifies that the space environment exists and the token
// can read it.
func (c *Client) GetEnvironment(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodGet, path: ""}, nil)
}
