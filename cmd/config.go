package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cineamoquery/cineamoquery/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the cineamoquery configuration",
	Long: `Read and write the TOML configuration file.

Known keys:
  ` + strings.Join(config.KnownKeys(), "\n  "),
	// Must keep working when the current file fails validation, so the
	// usual client setup is skipped.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
}

// configGetCmd represents the config get command
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the effective value of a config key",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

// configSetCmd represents the config set command
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a config key to the config file",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  `Print every known key with defaults, config file and environment applied.`,
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	value, err := config.Get(cfgFile, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%v\n", value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	path, err := config.Set(cfgFile, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("Set %s in %s\n", args[0], path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	keys := config.KnownKeys()
	width := 0
	for _, key := range keys {
		width = max(width, len(key))
	}

	for _, key := range keys {
		value, err := config.Get(cfgFile, key)
		if err != nil {
			return err
		}
		fmt.Printf("%-*s = %v\n", width, key, value)
	}
	return nil
}
