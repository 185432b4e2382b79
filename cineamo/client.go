package cineamo

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when the configuration leaves them unset.
const (
	DefaultBaseURL = "https://api.cineamo.com"
	DefaultTimeout = 15 * time.Second
)

// Client represents a Cineamo API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new Cineamo client
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}

	// Ensure baseURL doesn't have trailing slash
	baseURL = strings.TrimRight(baseURL, "/")

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

// Close releases idle connections held by the underlying transport.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// FetchPage issues a single GET for path with the given query parameters and
// returns the normalized page. Nothing is retried; a non-2xx status comes
// back as an *APIError.
func (c *Client) FetchPage(ctx context.Context, path string, params url.Values) (Page, error) {
	return c.fetchURL(ctx, c.requestURL(path, params))
}

// StreamAll returns a lazy sequence of items drawn from successive pages,
// starting at path+params and then following each page's next link until no
// next link remains. limit > 0 caps the total number of items; the stream
// truncates mid-page and fetches nothing further once the cap is reached.
// Stopping iteration early triggers no additional request. A failed fetch
// surfaces its error after every item from prior pages has been yielded.
//
// The next link is requested as the server supplied it. Rebuilding the URL
// from local page counters is how a page can get fetched twice; the server's
// href is authoritative.
func (c *Client) StreamAll(ctx context.Context, path string, params url.Values, limit int) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		requestURL := c.requestURL(path, params)
		yielded := 0

		for {
			page, err := c.fetchURL(ctx, requestURL)
			if err != nil {
				yield(nil, err)
				return
			}

			for _, item := range page.Items {
				if limit > 0 && yielded >= limit {
					return
				}
				if !yield(item, nil) {
					return
				}
				yielded++
			}

			if limit > 0 && yielded >= limit {
				return
			}
			if page.NextURL == "" {
				return
			}
			requestURL = c.nextRequestURL(page.NextURL)
		}
	}
}

// Get fetches a single resource (a detail endpoint or a raw path) and
// returns the decoded JSON object.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (map[string]any, error) {
	body, err := c.doRequest(ctx, c.requestURL(path, params))
	if err != nil {
		return nil, err
	}

	var resource map[string]any
	if err := unmarshalObject(body, &resource); err != nil {
		return nil, err
	}
	return resource, nil
}

// requestURL builds the URL for the first request of a sequence.
func (c *Client) requestURL(path string, params url.Values) string {
	requestURL := c.baseURL + path
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}
	return requestURL
}

// nextRequestURL resolves a server-supplied next href. Absolute hrefs pass
// through untouched; server-relative ones are joined onto the base URL. The
// path and query string are never rebuilt.
func (c *Client) nextRequestURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return c.baseURL + href
}

// fetchURL performs one GET and normalizes the response body.
func (c *Client) fetchURL(ctx context.Context, requestURL string) (Page, error) {
	body, err := c.doRequest(ctx, requestURL)
	if err != nil {
		return Page{}, err
	}
	return extractPage(body)
}

// doRequest performs a single GET request
func (c *Client) doRequest(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug().
		Str("url", requestURL).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("GET")

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       string(body),
		}
	}

	return body, nil
}
