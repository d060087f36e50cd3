// Package wordpress reads custom question posts from a WordPress REST API.
package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// Options configures a Client.
type Options struct {
	// BaseURL is the REST API root, e.g. https://example.com/wp-json/.
	BaseURL string
	// Endpoint is the route prefix of the migration endpoint under BaseURL.
	Endpoint string
	User     string
	Password string
	Timeout  time.Duration
}

// Client wraps calls to the WordPress REST API.
type Client struct {
	http     *resty.Client
	endpoint string
}

// New creates a WordPress client. Basic auth is only sent when both a user
// and a password are provided.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	rc := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")
	if opts.User != "" && opts.Password != "" {
		rc.SetBasicAuth(opts.User, opts.Password)
	}
	return &Client{http: rc, endpoint: opts.Endpoint}
}

// ErrorResponse is the WP_Error body returned on failed REST calls.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type pageResponse struct {
	Questions []Question `json:"questions"`
}

// Ping checks that the REST API root is reachable and the credentials are
// accepted.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.http.R().SetContext(ctx).Get("")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return checkResponse(res)
}

// FetchPage retrieves one page of questions of the given type.
func (c *Client) FetchPage(ctx context.Context, questionType string, page, pageSize int) ([]Question, error) {
	slog.Info("fetching page", "question_type", questionType, "page", page, "per_page", pageSize)

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"question_type": questionType,
			"page":          strconv.Itoa(page),
			"per_page":      strconv.Itoa(pageSize),
		}).
		Get(c.endpoint + "questions")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if err := checkResponse(res); err != nil {
		return nil, err
	}

	var body pageResponse
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		return nil, fmt.Errorf("decode page %d of %s: %w", page, questionType, err)
	}
	return body.Questions, nil
}

func checkResponse(res *resty.Response) error {
	if res.IsSuccess() {
		return nil
	}
	var errResp ErrorResponse
	if json.Unmarshal(res.Body(), &errResp) == nil && errResp.Code != "" {
		return fmt.Errorf("HTTP %d: %s: %s", res.StatusCode(), errResp.Code, errResp.Message)
	}
	return fmt.Errorf("HTTP %d: %s", res.StatusCode(), res.String())
}
