package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cineamoquery/cineamoquery/cineamo"
	"github.com/cineamoquery/cineamoquery/config"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
	client  *cineamo.Client

	version   = "dev"
	buildTime = "unknown"

	// Persistent flags
	baseURLFlag string
	timeoutFlag time.Duration
	formatFlag  string
	noColor     bool
	verbosity   int
	quiet       bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cineamoquery",
	Short: "Query cinemas, movies and showtimes from the Cineamo API",
	Long: `cineamoquery is a CLI tool for browsing the Cineamo cinema network:
list cinemas by city or location, search movies, and look up showtimes,
with paginated output as tables or raw JSON.`,
	PersistentPreRunE: initializeApp,
}

// SetVersion stores the build metadata injected from main.
func SetVersion(v, t string) {
	version = v
	buildTime = t
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if client != nil {
		client.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.config/cineamoquery/config.toml)")
	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "API base URL (overrides config and CINEAMO_BASE_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 0, "HTTP request timeout (overrides config)")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", "", "output format: table or json")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored log output")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v debug, -vv trace)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")

	rootCmd.AddCommand(versionCmd)
}

// initializeApp loads the configuration, applies flag overrides and builds
// the logger and API client shared by the subcommands.
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override from command line if specified
	if cmd.Flags().Changed("base-url") {
		cfg.API.BaseURL = baseURLFlag
	}
	if cmd.Flags().Changed("timeout") {
		cfg.API.Timeout = timeoutFlag
	}
	if cmd.Flags().Changed("format") {
		cfg.Output.Format = formatFlag
	}
	if cmd.Flags().Changed("no-color") {
		cfg.Logging.Color = !noColor
	}
	switch {
	case quiet:
		cfg.Logging.Level = "warn"
	case verbosity == 1:
		cfg.Logging.Level = "debug"
	case verbosity > 1:
		cfg.Logging.Level = "trace"
	}

	logger = setupLogger(cfg.Logging)

	client, err = cineamo.NewClient(cfg.API.BaseURL, cfg.API.Timeout,
		logger.With().Str("component", "cineamo").Logger())
	if err != nil {
		return fmt.Errorf("failed to create Cineamo client: %w", err)
	}

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format; color only when stderr is a terminal
	color := cfg.Color && isatty.IsTerminal(os.Stderr.Fd())
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !color,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cineamoquery %s\n", version)
		fmt.Printf("  build time: %s\n", buildTime)
		fmt.Printf("  go version: %s\n", runtime.Version())
	},
}
