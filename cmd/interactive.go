package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/samber/lo"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/cineamoquery/cineamoquery/output"
)

// Browsing caps; past these sizes a numbered menu stops being usable.
const (
	interactiveListLimit     = 200
	interactiveShowtimeLimit = 100
)

// interactiveCmd represents the interactive command
var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Aliases: []string{"i"},
	Short:   "Browse cinemas, movies and showtimes interactively",
	Long: `Browse the Cineamo network through prompts: search cinemas by city or
movies by title, then drill into showtimes, programs and details.`,
	RunE: runInteractive,
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

func runInteractive(cmd *cobra.Command, args []string) error {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return errors.New("interactive mode requires a terminal")
	}

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Cineamo interactive mode")

	for {
		fmt.Println()
		fmt.Println("[c] Search for a cinema")
		fmt.Println("[m] Search for a movie")
		fmt.Println("[q] Quit")

		choice, err := promptLine(scanner, "> ")
		if err != nil {
			return err
		}

		switch strings.ToLower(choice) {
		case "c":
			if err := cinemaWorkflow(ctx, scanner); err != nil {
				return err
			}
		case "m":
			if err := movieWorkflow(ctx, scanner); err != nil {
				return err
			}
		case "q", "":
			fmt.Println("Goodbye!")
			return nil
		default:
			fmt.Printf("Unknown choice %q\n", choice)
		}
	}
}

// promptLine prints the prompt and reads one trimmed line. End of input
// reads as an empty line, which every menu treats as going back.
func promptLine(scanner *bufio.Scanner, prompt string) (string, error) {
	fmt.Print(prompt)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		fmt.Println()
		return "", nil
	}
	return strings.TrimSpace(scanner.Text()), nil
}

// parseSelection turns "1,3,5" or "all" into zero-based indices,
// deduplicated, each between 1 and count.
func parseSelection(input string, count int) ([]int, error) {
	if strings.ToLower(input) == "all" {
		indices := make([]int, count)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}

	var indices []int
	seen := make(map[int]bool)

	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		num, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid number '%s': must be a positive integer", part)
		}
		if num < 1 || num > count {
			return nil, fmt.Errorf("invalid number %d: must be between 1 and %d", num, count)
		}

		idx := num - 1
		if !seen[idx] {
			indices = append(indices, idx)
			seen[idx] = true
		}
	}
	return indices, nil
}

func cinemaWorkflow(ctx context.Context, scanner *bufio.Scanner) error {
	city, err := promptLine(scanner, "City to filter by [Enter for all]: ")
	if err != nil {
		return err
	}

	params := url.Values{}
	if city != "" {
		params.Set("city", city)
	}
	cinemas, err := loadRecords(ctx, "/cinemas", params, interactiveListLimit, streamPerPage)
	if err != nil {
		return describeAPIError(err, "cinemas")
	}
	if len(cinemas) == 0 {
		fmt.Println("No cinemas found.")
		return nil
	}

	printCinemaTable(cinemas)

	input, err := promptLine(scanner, "\nEnter cinema numbers (comma-separated, e.g. 1,3) or 'all' [Enter to go back]: ")
	if err != nil || input == "" {
		return err
	}

	indices, err := parseSelection(input, len(cinemas))
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		return nil
	}
	if len(indices) == 0 {
		return nil
	}

	selected := make([]map[string]any, 0, len(indices))
	for _, idx := range indices {
		selected = append(selected, cinemas[idx])
	}

	return cinemaActions(ctx, scanner, selected)
}

func cinemaActions(ctx context.Context, scanner *bufio.Scanner, cinemas []map[string]any) error {
	ids := lo.Map(cinemas, func(record map[string]any, _ int) int {
		return cast.ToInt(record["id"])
	})
	names := lo.Map(cinemas, func(record map[string]any, _ int) string {
		return cast.ToString(record["name"])
	})

	for {
		fmt.Println()
		fmt.Printf("Actions for %s:\n", strings.Join(names, ", "))
		fmt.Println("[t] Today's showtimes")
		fmt.Println("[s] Showtimes for another date")
		fmt.Println("[m] Movies playing")
		fmt.Println("[d] Cinema details")
		fmt.Println("[b] Back")

		choice, err := promptLine(scanner, "> ")
		if err != nil {
			return err
		}

		switch strings.ToLower(choice) {
		case "t":
			if err := interactiveShowtimes(ctx, ids, time.Now().UTC()); err != nil {
				return err
			}
		case "s":
			input, err := promptLine(scanner, "Date (YYYY-MM-DD): ")
			if err != nil {
				return err
			}
			if input == "" {
				continue
			}
			day, err := time.Parse("2006-01-02", input)
			if err != nil {
				fmt.Printf("✗ invalid date %q, expected YYYY-MM-DD\n", input)
				continue
			}
			if err := interactiveShowtimes(ctx, ids, day); err != nil {
				return err
			}
		case "m":
			for i, id := range ids {
				if err := cinemaMovies(ctx, scanner, id, names[i]); err != nil {
					return err
				}
			}
		case "d":
			for _, id := range ids {
				record, err := client.Get(ctx, fmt.Sprintf("/cinemas/%d", id), nil)
				if err != nil {
					return describeAPIError(err, fmt.Sprintf("cinema %d", id))
				}
				fmt.Println()
				output.Detail(os.Stdout, record, cinemaDetailFields)
			}
		case "b", "":
			return nil
		default:
			fmt.Printf("Unknown choice %q\n", choice)
		}
	}
}

// interactiveShowtimes prints one day's showtimes for the given cinemas.
func interactiveShowtimes(ctx context.Context, cinemaIDs []int, day time.Time) error {
	records, err := loadRecords(ctx, "/showings", showingsParams(cinemaIDs, day),
		interactiveShowtimeLimit, streamPerPage)
	if err != nil {
		return describeAPIError(err, "showtimes")
	}

	day = day.UTC()
	if len(records) == 0 {
		fmt.Printf("No showtimes found for %s.\n", day.Format("2006-01-02"))
		return nil
	}

	sortShowtimes(records)

	fmt.Printf("\nShowtimes for %s:\n", day.Format("2006-01-02"))
	output.Table(os.Stdout, output.ShowtimeColumns, records)
	return nil
}

// cinemaMovies lists the movies playing at one cinema and offers a detail
// view for one of them.
func cinemaMovies(ctx context.Context, scanner *bufio.Scanner, cinemaID int, cinemaName string) error {
	movies, err := loadRecords(ctx, fmt.Sprintf("/cinemas/%d/movies", cinemaID), url.Values{},
		interactiveListLimit, streamPerPage)
	if err != nil {
		return describeAPIError(err, "movies")
	}
	if len(movies) == 0 {
		fmt.Printf("No movies found at %s.\n", cinemaName)
		return nil
	}

	fmt.Printf("\nMovies at %s:\n", cinemaName)
	printMovieList(movies)

	input, err := promptLine(scanner, "\nEnter a movie number for details [Enter to skip]: ")
	if err != nil || input == "" {
		return err
	}

	num, err := strconv.Atoi(input)
	if err != nil || num < 1 || num > len(movies) {
		fmt.Printf("✗ invalid movie number %q: must be between 1 and %d\n", input, len(movies))
		return nil
	}

	return showMovieDetails(ctx, cast.ToInt(movies[num-1]["id"]))
}

func movieWorkflow(ctx context.Context, scanner *bufio.Scanner) error {
	query, err := promptLine(scanner, "Movie title to search [Enter for all]: ")
	if err != nil {
		return err
	}

	params := url.Values{}
	if query != "" {
		params.Set("query", query)
	}
	movies, err := loadRecords(ctx, "/movies", params, interactiveListLimit, streamPerPage)
	if err != nil {
		return describeAPIError(err, "movies")
	}
	if len(movies) == 0 {
		fmt.Println("No movies found.")
		return nil
	}

	fmt.Printf("\nFound %d movies:\n", len(movies))
	printMovieList(movies)

	input, err := promptLine(scanner, "\nEnter a movie number [Enter to go back]: ")
	if err != nil || input == "" {
		return err
	}

	num, err := strconv.Atoi(input)
	if err != nil || num < 1 || num > len(movies) {
		fmt.Printf("✗ invalid movie number %q: must be between 1 and %d\n", input, len(movies))
		return nil
	}

	return movieActions(ctx, scanner, movies[num-1])
}

func movieActions(ctx context.Context, scanner *bufio.Scanner, movie map[string]any) error {
	movieID := cast.ToInt(movie["id"])
	title := cast.ToString(movie["title"])
	if title == "" {
		title = "Unknown"
	}

	for {
		fmt.Println()
		fmt.Printf("Actions for %q:\n", title)
		fmt.Println("[c] Cinemas playing this movie")
		fmt.Println("[d] Movie details")
		fmt.Println("[b] Back")

		choice, err := promptLine(scanner, "> ")
		if err != nil {
			return err
		}

		switch strings.ToLower(choice) {
		case "c":
			if err := movieCinemas(ctx, scanner, movie); err != nil {
				return err
			}
		case "d":
			if err := showMovieDetails(ctx, movieID); err != nil {
				return err
			}
		case "b", "":
			return nil
		default:
			fmt.Printf("Unknown choice %q\n", choice)
		}
	}
}

// movieCinemas lists the cinemas playing a movie, then shows today's
// showtimes for it at a picked cinema.
func movieCinemas(ctx context.Context, scanner *bufio.Scanner, movie map[string]any) error {
	// A city filter keeps the listing usable; the network spans over a
	// thousand cinemas.
	city, err := promptLine(scanner, "City to filter by [Enter for all]: ")
	if err != nil {
		return err
	}

	params := url.Values{}
	params.Set("movieId", strconv.Itoa(cast.ToInt(movie["id"])))
	if city != "" {
		params.Set("city", city)
	}
	cinemas, err := loadRecords(ctx, "/cinemas", params, interactiveListLimit, streamPerPage)
	if err != nil {
		return describeAPIError(err, "cinemas")
	}
	if len(cinemas) == 0 {
		fmt.Println("No cinemas found playing this movie.")
		return nil
	}

	printCinemaTable(cinemas)

	input, err := promptLine(scanner, "\nEnter a cinema number [Enter to go back]: ")
	if err != nil || input == "" {
		return err
	}

	num, err := strconv.Atoi(input)
	if err != nil || num < 1 || num > len(cinemas) {
		fmt.Printf("✗ invalid cinema number %q: must be between 1 and %d\n", input, len(cinemas))
		return nil
	}

	cinema := cinemas[num-1]
	title := cast.ToString(movie["title"])

	records, err := loadRecords(ctx, "/showings",
		showingsParams([]int{cast.ToInt(cinema["id"])}, time.Now().UTC()),
		interactiveShowtimeLimit, streamPerPage)
	if err != nil {
		return describeAPIError(err, "showtimes")
	}

	// Showings reference movies by Cineamo ID when the record carries one;
	// otherwise fall back to a title match.
	cineamoID := cast.ToString(movie["cineamoId"])
	records = lo.Filter(records, func(record map[string]any, _ int) bool {
		if cineamoID != "" {
			return cast.ToString(record["cineamoMovieId"]) == cineamoID
		}
		return strings.Contains(strings.ToLower(cast.ToString(record["name"])), strings.ToLower(title))
	})

	if len(records) == 0 {
		fmt.Println("No showtimes found for today.")
		return nil
	}

	sortShowtimes(records)

	fmt.Printf("\nShowtimes for %q at %s today:\n", title, cast.ToString(cinema["name"]))
	output.Table(os.Stdout, output.ShowtimeColumns, records)
	return nil
}

func showMovieDetails(ctx context.Context, movieID int) error {
	record, err := client.Get(ctx, fmt.Sprintf("/movies/%d", movieID), nil)
	if err != nil {
		return describeAPIError(err, fmt.Sprintf("movie %d", movieID))
	}

	fmt.Println()
	renderMovieDetail(record)
	return nil
}

func printCinemaTable(cinemas []map[string]any) {
	fmt.Println()
	fmt.Println(strings.Repeat("━", 81))
	fmt.Printf("%-4s %-42s %-25s %s\n", "#", "NAME", "CITY", "COUNTRY")
	fmt.Println(strings.Repeat("━", 81))

	for i, cinema := range cinemas {
		name := cast.ToString(cinema["name"])
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		city := cast.ToString(cinema["city"])
		if len(city) > 23 {
			city = city[:20] + "..."
		}
		fmt.Printf("%-4d %-42s %-25s %s\n", i+1, name, city, cast.ToString(cinema["countryCode"]))
	}
	fmt.Println(strings.Repeat("━", 81))
}

func printMovieList(movies []map[string]any) {
	for i, movie := range movies {
		fmt.Printf("%3d. %s\n", i+1, movieEntry(movie))
	}
}

// movieEntry formats a movie as a menu line: the title plus runtime and
// release date when known.
func movieEntry(record map[string]any) string {
	title := cast.ToString(record["title"])
	if title == "" {
		title = "Unknown"
	}

	var parts []string
	if runtime := cast.ToInt(record["runtime"]); runtime > 0 {
		parts = append(parts, fmt.Sprintf("%d min", runtime))
	}
	if release := cast.ToString(record["releaseDate"]); release != "" {
		if len(release) > 10 {
			release = release[:10]
		}
		parts = append(parts, release)
	}

	if len(parts) > 0 {
		return fmt.Sprintf("%s  [%s]", title, strings.Join(parts, ", "))
	}
	return title
}
