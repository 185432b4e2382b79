package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/cineamoquery/cineamoquery/output"
)

var (
	queryFlag       string
	regionFlag      string
	releaseFromFlag string
	releaseToFlag   string
	movieTypeFlag   string
)

// movieDetailFields is the render order of the movie detail view.
var movieDetailFields = []string{
	"id", "title", "originalTitle", "region", "releaseDate",
	"runtime", "genres", "originalLanguage", "imdbId", "tmdbId",
}

// moviesCmd represents the movies command
var moviesCmd = &cobra.Command{
	Use:   "movies",
	Short: "List movies",
	Long:  `List movies known to Cineamo, optionally narrowed by a search string.`,
	RunE:  runMovies,
}

// moviesSearchCmd represents the movies search command
var moviesSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search movies with advanced filters",
	RunE:  runMoviesSearch,
}

// movieCmd represents the movie command
var movieCmd = &cobra.Command{
	Use:   "movie <id>",
	Short: "Show a single movie",
	Args:  cobra.ExactArgs(1),
	RunE:  runMovie,
}

func init() {
	rootCmd.AddCommand(moviesCmd)
	rootCmd.AddCommand(movieCmd)
	moviesCmd.AddCommand(moviesSearchCmd)

	moviesCmd.Flags().StringVar(&queryFlag, "query", "", "search string")
	addListFlags(moviesCmd)

	moviesSearchCmd.Flags().StringVar(&queryFlag, "query", "", "search string")
	moviesSearchCmd.Flags().StringVar(&regionFlag, "region", "", "region code, e.g. DE")
	moviesSearchCmd.Flags().StringVar(&releaseFromFlag, "release-from", "", "earliest release date (YYYY-MM-DD)")
	moviesSearchCmd.Flags().StringVar(&releaseToFlag, "release-to", "", "latest release date (YYYY-MM-DD)")
	moviesSearchCmd.Flags().StringVar(&movieTypeFlag, "type", "", "movie type")
	addListFlags(moviesSearchCmd)
}

func runMovies(cmd *cobra.Command, args []string) error {
	params := url.Values{}
	if queryFlag != "" {
		params.Set("query", queryFlag)
	}

	ctx := context.Background()
	return runListing(ctx, "movies", "/movies", params, output.MovieColumns)
}

func runMoviesSearch(cmd *cobra.Command, args []string) error {
	params := url.Values{}
	if queryFlag != "" {
		params.Set("query", queryFlag)
	}
	if regionFlag != "" {
		params.Set("region", regionFlag)
	}
	if releaseFromFlag != "" {
		params.Set("releaseDateStart", releaseFromFlag)
	}
	if releaseToFlag != "" {
		params.Set("releaseDateEnd", releaseToFlag)
	}
	if movieTypeFlag != "" {
		params.Set("type", movieTypeFlag)
	}

	ctx := context.Background()
	return runListing(ctx, "movies", "/movies", params, output.MovieColumns)
}

func runMovie(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid movie ID %q", args[0])
	}

	ctx := context.Background()
	record, err := client.Get(ctx, fmt.Sprintf("/movies/%d", id), nil)
	if err != nil {
		return describeAPIError(err, fmt.Sprintf("movie %d", id))
	}

	if cfg.Output.Format == output.FormatJSON {
		return output.JSON(os.Stdout, record)
	}

	renderMovieDetail(record)
	return nil
}

// renderMovieDetail renders the detail view with the derived display
// fields, followed by the overview paragraph when there is one.
func renderMovieDetail(record map[string]any) {
	if runtime := formatRuntime(record["runtime"]); runtime != "" {
		record["runtime"] = runtime
	} else {
		delete(record, "runtime")
	}
	if genres := formatGenres(record["genres"]); genres != "" {
		record["genres"] = genres
	} else {
		delete(record, "genres")
	}
	if release := cast.ToString(record["releaseDate"]); len(release) > 10 {
		record["releaseDate"] = release[:10]
	}
	// A repeated title adds nothing to the view.
	if cast.ToString(record["originalTitle"]) == cast.ToString(record["title"]) {
		delete(record, "originalTitle")
	}

	output.Detail(os.Stdout, record, movieDetailFields)

	if overview := cast.ToString(record["overview"]); overview != "" {
		fmt.Println()
		fmt.Println(overview)
	}
}

// formatRuntime renders a minute count as "2h 14min (134 min)", or
// "45 min" under an hour. Missing or zero runtimes render as nothing.
func formatRuntime(v any) string {
	minutes := cast.ToInt(v)
	if minutes <= 0 {
		return ""
	}
	hours, mins := minutes/60, minutes%60
	if hours > 0 {
		return fmt.Sprintf("%dh %dmin (%d min)", hours, mins, minutes)
	}
	return fmt.Sprintf("%d min", mins)
}

// formatGenres joins the names of a genre record list.
func formatGenres(v any) string {
	entries, ok := v.([]any)
	if !ok {
		return ""
	}

	names := lo.FilterMap(entries, func(entry any, _ int) (string, bool) {
		genre, ok := entry.(map[string]any)
		if !ok {
			return "", false
		}
		name := cast.ToString(genre["name"])
		return name, name != ""
	})
	return strings.Join(names, ", ")
}
