// Package cmd implements the command line interface for the application.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/whit3rabbit/bleachcode/internal/bleacher"
	"github.com/whit3rabbit/bleachcode/internal/config"
)

const usage = "usage: bleachthiscode <input.c> <output.c>"

// errReported is returned once a message for the user has been printed, so
// Execute only has to set the exit status.
var errReported = errors.New("reported")

var (
	cfgFile string         // Variable to hold the config file path from the flag
	cfg     *config.Config // Global variable to hold the loaded configuration

	// Flag variables mapped to config fields for override
	silentMode      bool   // -> cfg.Silent
	debugMode       bool   // -> cfg.DebugMode
	alphabet        string // -> cfg.Alias.Alphabet
	keepPunctuation bool   // -> cfg.Rewrite.KeepPunctuation
	mapFile         string // -> cfg.Mapping.File
	mapKey          string // -> cfg.Mapping.Key
)

// rootCmd bleaches a single file when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "bleachthiscode <input.c> <output.c>",
	Short: "Rewrite C source into invisible aliases",
	Long: `bleachthiscode replaces every token of a C or C++ source file with an
alias made of zero-width characters. A prologue of #define lines maps the
aliases back, so the output compiles to the same program.

Example:
  bleachthiscode hello.c hello.bleached.c
  bleachthiscode --alphabet visible --map hello.map hello.c out.c
  bleachthiscode dir ./src -o ./dist`,
	// Arguments after the output path are ignored.
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, usage)
			return errReported
		}
		return nil
	},
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil { // Only load config once
			loadedCfg, err := config.LoadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("error loading configuration: %w", err)
			}
			cfg = loadedCfg

			// Apply command-line flag overrides *after* loading config file
			applyFlagOverrides(cfg, cmd)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		input, output := args[0], args[1]

		bctx, err := bleacher.NewContext(cfg)
		if err != nil {
			return err
		}
		if _, err := bctx.BleachFile(input, output); err != nil {
			// Details only in debug mode.
			if cfg.DebugMode {
				fmt.Fprintf(os.Stderr, "Error %s: %v\n", input, err)
			} else {
				fmt.Fprintf(os.Stderr, "Error %s\n", input)
			}
			return errReported
		}
		return nil
	},
}

// applyFlagOverrides applies command-line flag values to the config struct.
// Only overrides if the flag was explicitly set by the user via cmd.Flags().Changed().
func applyFlagOverrides(cfg *config.Config, cmd *cobra.Command) {
	if cmd.Flags().Changed("silent") {
		cfg.Silent = silentMode
	}
	if cmd.Flags().Changed("debug") {
		cfg.DebugMode = debugMode
	}
	if cmd.Flags().Changed("alphabet") {
		cfg.Alias.Alphabet = alphabet
	}
	if cmd.Flags().Changed("keep-punctuation") {
		cfg.Rewrite.KeepPunctuation = keepPunctuation
	}
	if cmd.Flags().Changed("map") {
		cfg.Mapping.File = mapFile
	}
	if cmd.Flags().Changed("map-key") {
		cfg.Mapping.Key = mapKey
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./"+config.DefaultConfigFile+")")

	rootCmd.PersistentFlags().BoolVarP(&silentMode, "silent", "s", false, "Suppress informational output (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Log every token and show error details (overrides config)")
	rootCmd.PersistentFlags().StringVar(&alphabet, "alphabet", config.AlphabetInvisible, "Alias alphabet: invisible, visible or custom (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&keepPunctuation, "keep-punctuation", false, "Leave operators other than ( ) , unaliased (overrides config)")
	rootCmd.PersistentFlags().StringVar(&mapFile, "map", "", "Alias mapping file to write, or to read for whatis (overrides config)")
	rootCmd.PersistentFlags().StringVar(&mapKey, "map-key", "", "Hex encoded 32 byte key sealing the mapping file (overrides config)")

	rootCmd.AddCommand(dirCmd)
	rootCmd.AddCommand(whatisCmd)
	rootCmd.AddCommand(configCmd)
}
