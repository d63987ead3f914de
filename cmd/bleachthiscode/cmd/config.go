package cmd

import (
	"github.com/spf13/cobra"

	"github.com/whit3rabbit/bleachcode/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Long: `Writes the default configuration as YAML to path (default ./` + config.DefaultConfigFile + `).
Every key can also be overridden from the environment, e.g.
BLEACH_ALIAS_ALPHABET=visible or BLEACH_REWRITE_KEEP_PUNCTUATION=true.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFile
		if len(args) == 1 {
			path = args[0]
		}
		return config.SaveConfig(path)
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}
