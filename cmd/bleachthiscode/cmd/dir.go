package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/whit3rabbit/bleachcode/internal/bleacher"
)

var (
	outputDir string // Flag variable for output directory
	cleanMode bool   // Flag variable for cleaning target directory
)

// dirCmd bleaches a source tree
var dirCmd = &cobra.Command{
	Use:   "dir <source_directory>",
	Short: "Bleach C sources in a directory recursively",
	Long: `Recursively scans the source directory and bleaches every file with a
configured extension into <output>/bleached, preserving the original
structure. Other files are copied. The alias mapping of each bleached file is
saved under <output>/context.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if outputDir == "" {
			return fmt.Errorf("output directory (-o, --output) is required for directory mode")
		}
		sourceDir := args[0]
		info, err := os.Stat(sourceDir)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("source directory '%s' not found", sourceDir)
			}
			return fmt.Errorf("error checking source directory '%s': %w", sourceDir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("source path '%s' is not a directory", sourceDir)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}
		sourceDir := args[0]

		if !cfg.Silent {
			fmt.Println("--- Directory Bleaching ---")
			fmt.Printf("Source Directory: %s\n", sourceDir)
			fmt.Printf("Target Directory: %s\n", outputDir)
			fmt.Printf("Clean Mode: %t\n", cleanMode)
			fmt.Println("---------------------------")
		}

		if cleanMode {
			if err := cleanTarget(outputDir); err != nil {
				return err
			}
		}

		bctx, err := bleacher.NewContext(cfg)
		if err != nil {
			return err
		}
		report, err := bctx.ProcessDir(sourceDir, outputDir)
		if report != nil && len(report.Errors) > 0 {
			fmt.Fprintf(os.Stderr, "\n--- Errors Encountered (%d) ---\n", len(report.Errors))
			for i, e := range report.Errors {
				if cfg.DebugMode {
					fmt.Fprintf(os.Stderr, "  %d: %v\n", i+1, e)
				} else {
					fmt.Fprintf(os.Stderr, "  %d: %s\n", i+1, summary(e))
				}
			}
			fmt.Fprintln(os.Stderr, "-----------------------------")
			return errReported
		}
		if err != nil {
			return err
		}

		if !cfg.Silent {
			fmt.Println("Directory processing finished successfully.")
		}
		return nil
	},
}

func init() {
	dirCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory path (required)")
	dirCmd.Flags().BoolVar(&cleanMode, "clean", false, "Remove the target directory before bleaching")
}

// cleanTarget removes a previous run's output, refusing obviously dangerous paths.
func cleanTarget(targetPath string) error {
	if _, err := os.Stat(targetPath); os.IsNotExist(err) {
		if !cfg.Silent {
			fmt.Printf("Info: Target directory %s does not exist, no cleaning needed.\n", targetPath)
		}
		return nil
	}
	isRoot := targetPath == filepath.VolumeName(targetPath)+"\\"
	if runtime.GOOS != "windows" {
		isRoot = filepath.Clean(targetPath) == "/"
	}
	if clean := filepath.Clean(targetPath); isRoot || clean == "." || clean == ".." {
		return fmt.Errorf("refusing to clean potentially dangerous path: %s", targetPath)
	}
	if !cfg.Silent {
		fmt.Printf("Info: Cleaning target directory: %s\n", targetPath)
	}
	if err := os.RemoveAll(targetPath); err != nil {
		return fmt.Errorf("failed to clean target directory %s: %w", targetPath, err)
	}
	return nil
}

// summary drops the wrapped detail of a per-file error and keeps the part
// naming the file.
func summary(err error) string {
	msg, _, _ := strings.Cut(err.Error(), ": ")
	return msg
}
