package cineamo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name        string
		baseURL     string
		timeout     time.Duration
		wantErr     error
		wantBaseURL string
		wantTimeout time.Duration
	}{
		{
			name:        "valid config",
			baseURL:     "https://api.cineamo.com",
			timeout:     20 * time.Second,
			wantBaseURL: "https://api.cineamo.com",
			wantTimeout: 20 * time.Second,
		},
		{
			name:    "missing URL",
			baseURL: "",
			timeout: 20 * time.Second,
			wantErr: ErrMissingBaseURL,
		},
		{
			name:        "trailing slash stripped",
			baseURL:     "https://api.cineamo.com/",
			timeout:     20 * time.Second,
			wantBaseURL: "https://api.cineamo.com",
			wantTimeout: 20 * time.Second,
		},
		{
			name:        "zero timeout falls back to default",
			baseURL:     "https://api.cineamo.com",
			timeout:     0,
			wantBaseURL: "https://api.cineamo.com",
			wantTimeout: DefaultTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.baseURL, tt.timeout, logger)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantBaseURL, client.baseURL)
			assert.Equal(t, tt.wantTimeout, client.httpClient.Timeout)
		})
	}
}

func TestFetchPage(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/cinemas", r.URL.Path)
		assert.Equal(t, "Berlin", r.URL.Query().Get("city"))
		assert.Equal(t, "10", r.URL.Query().Get("per_page"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Write([]byte(cinemasPageOne))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, 5*time.Second, zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()

	params := url.Values{}
	params.Set("city", "Berlin")
	params.Set("per_page", "10")

	page, err := client.FetchPage(context.Background(), "/cinemas", params)
	require.NoError(t, err)

	assert.Equal(t, 1, requests)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Cinema One", page.Items[0]["name"])
	require.NotNil(t, page.TotalItems)
	assert.Equal(t, 50, *page.TotalItems)
	assert.Equal(t, "/cinemas?page=2&per_page=10", page.NextURL)
}

func TestFetchPageStatusError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		check      func(t *testing.T, apiErr *APIError)
	}{
		{
			name:       "not found",
			statusCode: http.StatusNotFound,
			check: func(t *testing.T, apiErr *APIError) {
				assert.True(t, apiErr.IsNotFound())
				assert.False(t, apiErr.IsServerError())
			},
		},
		{
			name:       "rate limited",
			statusCode: http.StatusTooManyRequests,
			check: func(t *testing.T, apiErr *APIError) {
				assert.True(t, apiErr.IsRateLimited())
			},
		},
		{
			name:       "server error",
			statusCode: http.StatusInternalServerError,
			check: func(t *testing.T, apiErr *APIError) {
				assert.True(t, apiErr.IsServerError())
				assert.False(t, apiErr.IsNotFound())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requests := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests++
				http.Error(w, "nope", tt.statusCode)
			}))
			defer server.Close()

			client, err := NewClient(server.URL, 5*time.Second, zerolog.Nop())
			require.NoError(t, err)
			defer client.Close()

			_, err = client.FetchPage(context.Background(), "/cinemas", nil)
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.statusCode, apiErr.StatusCode)
			tt.check(t, apiErr)

			// Never retried
			assert.Equal(t, 1, requests)
		})
	}
}

func TestFetchPageDecodeError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid JSON", body: `{"_embedded": `},
		{name: "top-level array", body: `[{"id": 1}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewClient(server.URL, 5*time.Second, zerolog.Nop())
			require.NoError(t, err)
			defer client.Close()

			_, err = client.FetchPage(context.Background(), "/cinemas", nil)
			require.Error(t, err)

			var decodeErr *DecodeError
			assert.True(t, errors.As(err, &decodeErr))
		})
	}
}

func TestFetchPageTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	client, err := NewClient(server.URL, time.Second, zerolog.Nop())
	require.NoError(t, err)

	_, err = client.FetchPage(context.Background(), "/cinemas", nil)
	require.Error(t, err)

	var urlErr *url.Error
	assert.True(t, errors.As(err, &urlErr))
}

func TestGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cinemas/42", r.URL.Path)
		w.Write([]byte(`{"id": 42, "name": "Kino International", "city": "Berlin"}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, 5*time.Second, zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()

	resource, err := client.Get(context.Background(), "/cinemas/42", nil)
	require.NoError(t, err)
	assert.Equal(t, "Kino International", resource["name"])
	assert.EqualValues(t, 42, resource["id"])
}

func TestGetNotObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[1, 2, 3]`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, 5*time.Second, zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Get(context.Background(), "/cinemas", nil)
	require.Error(t, err)

	var decodeErr *DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}
