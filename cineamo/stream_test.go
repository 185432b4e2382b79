package cineamo

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pageServer serves canned HAL bodies keyed by request URI and records the
// URI of every request it answers, in order.
type pageServer struct {
	*httptest.Server

	mu   sync.Mutex
	seen []string
}

func newPageServer(t *testing.T, pages map[string]string) *pageServer {
	t.Helper()

	ps := &pageServer{}
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.mu.Lock()
		ps.seen = append(ps.seen, r.URL.RequestURI())
		ps.mu.Unlock()

		body, ok := pages[r.URL.RequestURI()]
		if !ok {
			t.Errorf("unexpected request: %s", r.URL.RequestURI())
			http.Error(w, "unexpected request", http.StatusInternalServerError)
			return
		}
		if body == "" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(ps.Server.Close)

	return ps
}

func (ps *pageServer) requests() []string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return append([]string(nil), ps.seen...)
}

func halBody(items string, next string) string {
	if next == "" {
		return fmt.Sprintf(`{"_embedded": {"cinemas": %s}}`, items)
	}
	return fmt.Sprintf(`{"_embedded": {"cinemas": %s}, "_links": {"next": {"href": %q}}}`, items, next)
}

func newStreamClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	client, err := NewClient(baseURL, 5*time.Second, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client
}

// collect drains a stream into item names, stopping at the first error.
func collect(t *testing.T, seq iter.Seq2[Item, error]) ([]string, error) {
	t.Helper()

	var names []string
	var streamErr error
	for item, err := range seq {
		if err != nil {
			streamErr = err
			break
		}
		names = append(names, item["name"].(string))
	}
	return names, streamErr
}

func TestStreamAllTermination(t *testing.T) {
	server := newPageServer(t, map[string]string{
		"/cinemas?per_page=2":        halBody(`[{"name": "c1"}, {"name": "c2"}]`, "/cinemas?page=2&per_page=2"),
		"/cinemas?page=2&per_page=2": halBody(`[{"name": "c3"}, {"name": "c4"}]`, "/cinemas?page=3&per_page=2"),
		"/cinemas?page=3&per_page=2": halBody(`[{"name": "c5"}, {"name": "c6"}]`, ""),
	})
	client := newStreamClient(t, server.URL)

	params := url.Values{}
	params.Set("per_page", "2")

	names, err := collect(t, client.StreamAll(context.Background(), "/cinemas", params, 0))
	require.NoError(t, err)

	// Every page's items arrive exactly once and in page order, with one
	// fetch per page.
	assert.Equal(t, []string{"c1", "c2", "c3", "c4", "c5", "c6"}, names)
	assert.Equal(t, []string{
		"/cinemas?per_page=2",
		"/cinemas?page=2&per_page=2",
		"/cinemas?page=3&per_page=2",
	}, server.requests())
}

func TestStreamAllUsesNextURLVerbatim(t *testing.T) {
	// The next href carries an opaque cursor that no amount of local page
	// arithmetic could reconstruct. The second request must be that literal
	// string.
	next := "/cinemas?cursor=opaque-f00&per_page=2"
	server := newPageServer(t, map[string]string{
		"/cinemas?per_page=2": halBody(`[{"name": "c1"}, {"name": "c2"}]`, next),
		next:                  halBody(`[{"name": "c3"}]`, ""),
	})
	client := newStreamClient(t, server.URL)

	params := url.Values{}
	params.Set("per_page", "2")

	names, err := collect(t, client.StreamAll(context.Background(), "/cinemas", params, 0))
	require.NoError(t, err)

	assert.Equal(t, []string{"c1", "c2", "c3"}, names)
	requests := server.requests()
	require.Len(t, requests, 2)
	assert.Equal(t, next, requests[1])
}

func TestStreamAllAbsoluteNextURL(t *testing.T) {
	var mu sync.Mutex
	var seen []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.RequestURI())
		mu.Unlock()

		switch r.URL.RequestURI() {
		case "/cinemas":
			w.Write([]byte(halBody(`[{"name": "c1"}]`, "http://"+r.Host+"/cinemas?page=2")))
		case "/cinemas?page=2":
			w.Write([]byte(halBody(`[{"name": "c2"}]`, "")))
		default:
			t.Errorf("unexpected request: %s", r.URL.RequestURI())
		}
	}))
	defer server.Close()

	client := newStreamClient(t, server.URL)

	names, err := collect(t, client.StreamAll(context.Background(), "/cinemas", nil, 0))
	require.NoError(t, err)

	assert.Equal(t, []string{"c1", "c2"}, names)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/cinemas", "/cinemas?page=2"}, seen)
}

func TestStreamAllCapMidPage(t *testing.T) {
	// Pages of 4 with a limit of 10: ceil(10/4) = 3 fetches for 10 items,
	// truncated mid-page without fetching the fourth page.
	server := newPageServer(t, map[string]string{
		"/cinemas":        halBody(`[{"name": "c1"}, {"name": "c2"}, {"name": "c3"}, {"name": "c4"}]`, "/cinemas?page=2"),
		"/cinemas?page=2": halBody(`[{"name": "c5"}, {"name": "c6"}, {"name": "c7"}, {"name": "c8"}]`, "/cinemas?page=3"),
		"/cinemas?page=3": halBody(`[{"name": "c9"}, {"name": "c10"}, {"name": "c11"}, {"name": "c12"}]`, "/cinemas?page=4"),
		"/cinemas?page=4": halBody(`[{"name": "c13"}]`, ""),
	})
	client := newStreamClient(t, server.URL)

	names, err := collect(t, client.StreamAll(context.Background(), "/cinemas", nil, 10))
	require.NoError(t, err)

	assert.Len(t, names, 10)
	assert.Equal(t, "c10", names[9])
	assert.Len(t, server.requests(), 3)
}

func TestStreamAllCapOnPageBoundary(t *testing.T) {
	// A limit that lands exactly on a page boundary must not fetch the page
	// after it.
	server := newPageServer(t, map[string]string{
		"/cinemas":        halBody(`[{"name": "c1"}, {"name": "c2"}]`, "/cinemas?page=2"),
		"/cinemas?page=2": halBody(`[{"name": "c3"}, {"name": "c4"}]`, "/cinemas?page=3"),
	})
	client := newStreamClient(t, server.URL)

	names, err := collect(t, client.StreamAll(context.Background(), "/cinemas", nil, 4))
	require.NoError(t, err)

	assert.Equal(t, []string{"c1", "c2", "c3", "c4"}, names)
	assert.Len(t, server.requests(), 2)
}

func TestStreamAllEarlyStopNoFetch(t *testing.T) {
	server := newPageServer(t, map[string]string{
		"/cinemas":        halBody(`[{"name": "c1"}, {"name": "c2"}]`, "/cinemas?page=2"),
		"/cinemas?page=2": halBody(`[{"name": "c3"}]`, ""),
	})
	client := newStreamClient(t, server.URL)

	for item, err := range client.StreamAll(context.Background(), "/cinemas", nil, 0) {
		require.NoError(t, err)
		assert.Equal(t, "c1", item["name"])
		break
	}

	// Abandoning the stream after the first item must leave no pending
	// fetch behind.
	assert.Equal(t, []string{"/cinemas"}, server.requests())
}

func TestStreamAllErrorPropagation(t *testing.T) {
	server := newPageServer(t, map[string]string{
		"/cinemas": halBody(`[{"name": "c1"}, {"name": "c2"}, {"name": "c3"}, {"name": "c4"}, {"name": "c5"}]`, "/cinemas?page=2"),
		// Empty body makes the server answer 500.
		"/cinemas?page=2": "",
	})
	client := newStreamClient(t, server.URL)

	names, err := collect(t, client.StreamAll(context.Background(), "/cinemas", nil, 0))

	// Page one's items all arrive before the failure surfaces, and the
	// failing page is not retried.
	assert.Equal(t, []string{"c1", "c2", "c3", "c4", "c5"}, names)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, []string{"/cinemas", "/cinemas?page=2"}, server.requests())
}

func TestStreamAllFirstFetchError(t *testing.T) {
	server := newPageServer(t, map[string]string{
		"/cinemas": "",
	})
	client := newStreamClient(t, server.URL)

	names, err := collect(t, client.StreamAll(context.Background(), "/cinemas", nil, 0))

	assert.Empty(t, names)
	require.Error(t, err)

	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestStreamAllEmptyPageWithNextContinues(t *testing.T) {
	// An empty page is not a termination signal; only a missing next link is.
	server := newPageServer(t, map[string]string{
		"/cinemas":        halBody(`[]`, "/cinemas?page=2"),
		"/cinemas?page=2": halBody(`[{"name": "c1"}, {"name": "c2"}]`, ""),
	})
	client := newStreamClient(t, server.URL)

	names, err := collect(t, client.StreamAll(context.Background(), "/cinemas", nil, 0))
	require.NoError(t, err)

	assert.Equal(t, []string{"c1", "c2"}, names)
	assert.Len(t, server.requests(), 2)
}
