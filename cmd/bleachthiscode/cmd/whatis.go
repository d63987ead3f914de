package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/runenames"

	"github.com/whit3rabbit/bleachcode/internal/alias"
)

// whatisCmd represents the whatis command
var whatisCmd = &cobra.Command{
	Use:   "whatis <alias>",
	Short: "Looks up the original text of an alias",
	Long: `Loads the alias mapping saved by a previous run (--map) and prints the
original text behind an alias, its counter id and the Unicode names of its
symbols.

Invisible aliases are hard to type, so the alias may also be given with Go
escapes, e.g. '\u200c\u200b'. A sealed mapping needs --map-key.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Mapping.File == "" {
			return fmt.Errorf("--map flag is required")
		}
		if _, err := os.Stat(cfg.Mapping.File); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("mapping file '%s' not found", cfg.Mapping.File)
			}
			return fmt.Errorf("error checking mapping file '%s': %w", cfg.Mapping.File, err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := unescapeAlias(args[0])
		if err != nil {
			return err
		}
		key, err := alias.ParseKey(cfg.Mapping.Key)
		if err != nil {
			return fmt.Errorf("invalid mapping key: %w", err)
		}
		table, err := alias.LoadMapping(cfg.Mapping.File, key)
		if err != nil {
			return fmt.Errorf("error loading mapping from %s: %w", cfg.Mapping.File, err)
		}
		if !cfg.Silent {
			fmt.Printf("Searching for %q in %s\n", name, cfg.Mapping.File)
		}

		original, ok := table.Original(name)
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: alias %q not found in the mapping.\n", name)
			return errReported
		}
		id, _ := table.Alphabet().Decode(name)
		fmt.Printf("Found: '%s' (id %d)\n", original, id)
		fmt.Printf("Symbols: %s\n", describe(strings.TrimPrefix(name, table.Alphabet().Prefix())))
		return nil
	},
}

// unescapeAlias accepts an alias either raw or spelled with Go escapes.
func unescapeAlias(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	u, err := strconv.Unquote(`"` + s + `"`)
	if err != nil {
		return "", fmt.Errorf("invalid escaped alias %q: %w", s, err)
	}
	return u, nil
}

// describe names each rune, e.g. "U+200C ZERO WIDTH NON-JOINER".
func describe(digits string) string {
	var parts []string
	for _, r := range digits {
		parts = append(parts, fmt.Sprintf("%U %s", r, runenames.Name(r)))
	}
	return strings.Join(parts, ", ")
}
