package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nerve-tracer/internal/config"
	"nerve-tracer/internal/errors"
)

// ConfigCmd groups configuration helpers.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the analysis configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "nerve.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return errors.Newf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.CreateDefaultConfigFile(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
	ConfigCmd.AddCommand(configInitCmd)
}
