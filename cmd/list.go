package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/cineamoquery/cineamoquery/cineamo"
	"github.com/cineamoquery/cineamoquery/filter"
	"github.com/cineamoquery/cineamoquery/output"
)

// streamPerPage is the page size used while following pagination with --all.
const streamPerPage = 50

var (
	pageFlag    int
	perPageFlag int
	allFlag     bool
	limitFlag   int
	filterExpr  string
)

// addListFlags registers the pagination and filter flags shared by the list
// commands.
func addListFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&pageFlag, "page", 0, "page number to fetch")
	cmd.Flags().IntVar(&perPageFlag, "per-page", 0, "records per page")
	cmd.Flags().BoolVar(&allFlag, "all", false, "follow pagination and fetch every page")
	cmd.Flags().IntVarP(&limitFlag, "limit", "n", 0, "stop after this many records with --all")
	cmd.Flags().StringVarP(&filterExpr, "filter", "f", "", `filter expression, e.g. 'city == "Berlin"'`)
}

// fetchRecords performs one page fetch, or streams every page when --all is
// set. The footer is empty in streaming mode; single-page fetches report the
// server's pagination metadata.
func fetchRecords(ctx context.Context, path string, params url.Values) ([]map[string]any, string, error) {
	if params == nil {
		params = url.Values{}
	}

	if allFlag {
		perPage := streamPerPage
		if perPageFlag > 0 {
			perPage = perPageFlag
		}
		records, err := loadRecords(ctx, path, params, limitFlag, perPage)
		if err != nil {
			return nil, "", err
		}
		return records, "", nil
	}

	perPage := cfg.API.PerPage
	if perPageFlag > 0 {
		perPage = perPageFlag
	}
	params.Set("per_page", strconv.Itoa(perPage))
	if pageFlag > 0 {
		params.Set("page", strconv.Itoa(pageFlag))
	}

	page, err := client.FetchPage(ctx, path, params)
	if err != nil {
		return nil, "", err
	}

	records := make([]map[string]any, 0, len(page.Items))
	for _, item := range page.Items {
		records = append(records, item)
	}
	return records, output.PageFooter(page.PageNumber, page.PageCount, page.TotalItems), nil
}

// loadRecords streams records from path until the listing is exhausted or
// limit records have been fetched (0 means no limit).
func loadRecords(ctx context.Context, path string, params url.Values, limit, perPage int) ([]map[string]any, error) {
	params.Set("per_page", strconv.Itoa(perPage))

	var records []map[string]any
	for item, err := range client.StreamAll(ctx, path, params, limit) {
		if err != nil {
			return nil, err
		}
		records = append(records, item)
	}
	return records, nil
}

// applyFilter keeps the records matching the --filter expression.
func applyFilter(records []map[string]any) ([]map[string]any, error) {
	if filterExpr == "" {
		return records, nil
	}

	f, err := filter.Compile(filterExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	return lo.Filter(records, func(record map[string]any, _ int) bool {
		return f.Match(record)
	}), nil
}

// renderList writes the records in the configured format. The page footer
// only makes sense under table output.
func renderList(columns []output.Column, records []map[string]any, footer string) error {
	if err := output.Render(os.Stdout, cfg.Output.Format, columns, records); err != nil {
		return err
	}
	if footer != "" && cfg.Output.Format == output.FormatTable && len(records) > 0 {
		fmt.Println(footer)
	}
	return nil
}

// runListing is the shared pipeline behind the list commands.
func runListing(ctx context.Context, resource, path string, params url.Values, columns []output.Column) error {
	records, footer, err := fetchRecords(ctx, path, params)
	if err != nil {
		return describeAPIError(err, resource)
	}

	records, err = applyFilter(records)
	if err != nil {
		return err
	}

	return renderList(columns, records, footer)
}

// describeAPIError maps status errors onto messages naming the resource.
func describeAPIError(err error, resource string) error {
	var apiErr *cineamo.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch {
	case apiErr.IsNotFound():
		return fmt.Errorf("%s not found", resource)
	case apiErr.IsRateLimited():
		return errors.New("rate limited by the Cineamo API, try again later")
	case apiErr.IsServerError():
		return fmt.Errorf("the Cineamo API reported a server error: %w", err)
	}
	return err
}
