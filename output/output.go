// Package output renders API records for the terminal: aligned tables for
// humans, indented JSON for everything else. Records are untyped wire maps
// and are never reshaped beyond column selection.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cast"
)

// Formats accepted by Render.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Column maps one record field onto a table column.
type Column struct {
	Header string
	Field  string
	Width  int
}

// Column sets for the resources the CLI lists.
var (
	CinemaColumns = []Column{
		{Header: "ID", Field: "id", Width: 8},
		{Header: "NAME", Field: "name", Width: 40},
		{Header: "CITY", Field: "city", Width: 20},
		{Header: "COUNTRY", Field: "countryCode", Width: 7},
	}

	MovieColumns = []Column{
		{Header: "ID", Field: "id", Width: 8},
		{Header: "TITLE", Field: "title", Width: 44},
		{Header: "RELEASE", Field: "releaseDate", Width: 12},
		{Header: "REGION", Field: "region", Width: 6},
	}

	ShowtimeColumns = []Column{
		{Header: "TIME", Field: "time", Width: 7},
		{Header: "MOVIE", Field: "name", Width: 44},
		{Header: "LANG", Field: "lang", Width: 6},
	}
)

// Render writes records in the requested format.
func Render(w io.Writer, format string, columns []Column, records []map[string]any) error {
	switch format {
	case FormatJSON:
		return JSON(w, records)
	case FormatTable:
		Table(w, columns, records)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

// Table writes records as an aligned table with a heavy rule above and below
// the body.
func Table(w io.Writer, columns []Column, records []map[string]any) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No results found")
		return
	}

	rule := strings.Repeat("━", ruleWidth(columns))

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, formatRow(columns, func(col Column) string { return col.Header }))
	fmt.Fprintln(w, rule)
	for _, record := range records {
		fmt.Fprintln(w, formatRow(columns, func(col Column) string {
			return cast.ToString(record[col.Field])
		}))
	}
	fmt.Fprintln(w, rule)
}

// JSON writes v as two-space indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Detail writes one record as aligned key/value lines in the given field
// order, skipping fields the record lacks.
func Detail(w io.Writer, record map[string]any, fields []string) {
	present := lo.Filter(fields, func(field string, _ int) bool {
		value, ok := record[field]
		return ok && value != nil
	})
	if len(present) == 0 {
		fmt.Fprintln(w, "No details available")
		return
	}

	width := 0
	for _, field := range present {
		if len(field) > width {
			width = len(field)
		}
	}

	for _, field := range present {
		fmt.Fprintf(w, "%-*s %s\n", width+1, field+":", cast.ToString(record[field]))
	}
}

// PageFooter formats the pagination counters the server chose to report,
// e.g. "page 1 of 5 (50 total)". Omitted counters are dropped; an empty
// string means the server reported none.
func PageFooter(pageNumber, pageCount, totalItems *int) string {
	var parts []string

	switch {
	case pageNumber != nil && pageCount != nil:
		parts = append(parts, fmt.Sprintf("page %d of %d", *pageNumber, *pageCount))
	case pageNumber != nil:
		parts = append(parts, fmt.Sprintf("page %d", *pageNumber))
	case pageCount != nil:
		parts = append(parts, fmt.Sprintf("%d pages", *pageCount))
	}
	if totalItems != nil {
		parts = append(parts, fmt.Sprintf("(%d total)", *totalItems))
	}

	return strings.Join(parts, " ")
}

func formatRow(columns []Column, value func(Column) string) string {
	cells := lo.Map(columns, func(col Column, i int) string {
		// The last column runs ragged; padding it would only add
		// trailing spaces.
		if i == len(columns)-1 {
			return truncate(value(col), col.Width)
		}
		return fmt.Sprintf("%-*s", col.Width, truncate(value(col), col.Width))
	})
	return strings.Join(cells, " ")
}

func truncate(value string, width int) string {
	runes := []rune(value)
	if len(runes) <= width {
		return value
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

func ruleWidth(columns []Column) int {
	width := 0
	for i, col := range columns {
		width += col.Width
		if i < len(columns)-1 {
			width++
		}
	}
	return width
}
