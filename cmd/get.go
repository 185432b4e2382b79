package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cineamoquery/cineamoquery/output"
)

var paramFlags []string

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Perform a raw GET against any API path",
	Long: `Perform a GET request against an arbitrary API path and print the
JSON response. Query parameters are passed with repeated -p flags:

  cineamoquery get /cinemas -p city=Berlin -p per_page=5`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().StringArrayVarP(&paramFlags, "param", "p", nil, "query parameter as key=value (repeatable)")
}

func runGet(cmd *cobra.Command, args []string) error {
	path := args[0]
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("path must start with '/'")
	}

	params := url.Values{}
	for _, p := range paramFlags {
		key, value, found := strings.Cut(p, "=")
		if !found {
			return fmt.Errorf("-p expects key=value, got %q", p)
		}
		params.Add(key, value)
	}

	ctx := context.Background()
	record, err := client.Get(ctx, path, params)
	if err != nil {
		return describeAPIError(err, path)
	}

	return output.JSON(os.Stdout, record)
}
