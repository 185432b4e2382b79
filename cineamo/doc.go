// Package cineamo provides a client for the Cineamo HAL-JSON REST API.
//
// Cineamo exposes cinema, movie, and showtime resources as paginated HAL
// documents. This package normalizes those documents into a uniform Page
// abstraction and handles pagination without any endpoint-specific knowledge.
//
// # Architecture
//
// The package is organized into two layers:
//
//   - Extraction: a pure pass over one decoded document that finds the
//     embedded item collection, the pagination counters, and the next link
//   - Client: the HTTP transport offering a single-page fetch and a lazy,
//     capped, strictly sequential multi-page stream
//
// # Usage
//
// Create a client with the API base URL and a request timeout:
//
//	logger := zerolog.New(os.Stderr)
//	client, err := cineamo.NewClient(cineamo.DefaultBaseURL, 15*time.Second, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	// One page of cinemas
//	params := url.Values{}
//	params.Set("city", "Berlin")
//	page, err := client.FetchPage(ctx, "/cinemas", params)
//
//	// Every cinema, capped at 100, fetched page by page
//	for item, err := range client.StreamAll(ctx, "/cinemas", params, 100) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(item["name"])
//	}
//
// # Pagination
//
// Each HAL response nests its collection under a resource-specific key of
// the _embedded object (cinemas, movies, showings, ...). The extractor scans
// _embedded in document key order and takes the first sequence-valued key,
// so new endpoints work without client changes. Subsequent pages are fetched
// through the href of _links.next exactly as the server returned it, which
// is the server's authoritative next state; the absence of that link is the
// only signal that the stream is exhausted.
//
// # Error Handling
//
// The package defines structured error types:
//
//   - ErrMissingBaseURL: client constructed without a base URL
//   - APIError: non-2xx responses, with the status code preserved
//   - DecodeError: bodies that are not a JSON object
//
// Transport failures are wrapped with their underlying cause. No error is
// retried at this layer, and a stream that fails mid-way yields every item
// received before the failing request, then the error itself.
package cineamo
