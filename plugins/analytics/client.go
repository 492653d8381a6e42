package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"coursesync/model"
)

const (
	// DefaultEndpoint serves the course structure document.
	DefaultEndpoint = "http://analytics.skillfactory.ru:5000/api/v1.0.1/get_structure_course/"
	DefaultTimeout  = 60 * time.Second

	maxErrorBody = 512
)

// Document is the decoded top level of a course structure response, keyed by
// field name. Only "blocks" is consumed.
type Document map[string]json.RawMessage

type Client struct {
	Endpoint   string
	HTTPClient *http.Client
}

// NewClient returns a Client for endpoint whose calls give up after timeout.
// An empty endpoint falls back to DefaultEndpoint.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// FetchStructure POSTs an empty request to the course structure endpoint and
// decodes the JSON reply.
//
// Failures are classified as model.ErrTransport (the request never got an
// answer), *model.HTTPError (non-2xx status) or model.ErrParse (the body is
// not a JSON object).
func (c *Client) FetchStructure(ctx context.Context) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", model.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrTransport, err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			return
		}
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", model.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       truncate(strings.TrimSpace(string(body)), maxErrorBody),
		}
	}

	return DecodeDocument(body)
}

// DecodeDocument parses body as a JSON object.
func DecodeDocument(body []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: expected a JSON object, got %s", model.ErrParse, typeErr.Value)
		}
		return nil, fmt.Errorf("%w: %w", model.ErrParse, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: expected a JSON object, got null", model.ErrParse)
	}
	return doc, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
