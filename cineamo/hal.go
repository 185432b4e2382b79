package cineamo

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Item is one record from an embedded collection. Records pass through
// untouched; interpreting their fields is the caller's concern.
type Item map[string]any

// Page is the normalized form of one paginated API response.
type Page struct {
	// Items is never nil; an exhausted or sparse response yields an empty slice.
	Items []Item
	// TotalItems, PageNumber and PageCount are nil when the server omits
	// them. Zero is a value the server may report, so nil, not 0, means unknown.
	TotalItems *int
	PageNumber *int
	PageCount  *int
	// NextURL is the href of the next page, empty when no further page
	// exists. An empty NextURL is the only termination signal; an empty
	// Items slice is not.
	NextURL string
}

// halDocument mirrors the HAL envelope of every Cineamo response. The
// embedded collection is kept raw because its key varies per endpoint and
// selecting it depends on document key order, which a map would lose.
type halDocument struct {
	Embedded   json.RawMessage    `json:"_embedded"`
	Links      map[string]halLink `json:"_links"`
	Page       *int               `json:"_page"`
	PageCount  *int               `json:"_page_count"`
	TotalItems *int               `json:"_total_items"`
}

type halLink struct {
	Href string `json:"href"`
}

// extractPage normalizes one response body into a Page. Missing optional
// structure (_embedded, _links.next, pagination counters) resolves to empty
// or absent fields; the only failure is a body that is not a JSON object.
func extractPage(body []byte) (Page, error) {
	var doc halDocument
	if err := unmarshalObject(body, &doc); err != nil {
		return Page{}, err
	}

	items := firstEmbedded(doc.Embedded)
	if items == nil {
		items = []Item{}
	}

	return Page{
		Items:      items,
		TotalItems: doc.TotalItems,
		PageNumber: doc.Page,
		PageCount:  doc.PageCount,
		NextURL:    doc.Links["next"].Href,
	}, nil
}

// firstEmbedded returns the first sequence-of-records value inside _embedded,
// scanning keys in document order. Endpoints nest their collection under a
// resource-specific key (cinemas, movies, showings, ...), so the order-aware
// scan is what keeps the client endpoint-agnostic. Returns nil when no key
// holds a sequence.
func firstEmbedded(embedded json.RawMessage) []Item {
	if len(embedded) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(embedded))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil
		}
		// A JSON null leaves the slice nil without an error; only a real
		// array (including an empty one) counts as a match.
		var items []Item
		if err := json.Unmarshal(value, &items); err != nil || items == nil {
			continue
		}
		return items
	}
	return nil
}

// unmarshalObject decodes body into v, rejecting a top-level JSON null,
// which json.Unmarshal would otherwise silently accept.
func unmarshalObject(body []byte, v any) error {
	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return &DecodeError{Err: errors.New("top-level JSON value is null, want object")}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}
