// Package commands implements the nerveanalyze command tree.
package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nerve-tracer/internal/config"
	"nerve-tracer/internal/errors"
	"nerve-tracer/internal/logger"
)

// Shared state prepared by the root command before any subcommand runs.
var (
	cfg *config.Config
	log *zap.Logger
)

// RootCmd is the nerveanalyze entry point.
var RootCmd = &cobra.Command{
	Use:   "nerveanalyze",
	Short: "Corneal nerve fibre morphology from skeleton rasters",
	Long: `nerveanalyze builds a labelled graph from a one-pixel-wide nerve skeleton,
classifies main trunks and side branches and reports the standard corneal
nerve indices (CNFL, CNFD, CNBD, CNFA, CNFW, CTBD, CNFT, CNFrD).

Examples:
  nerveanalyze analyze --image img.bmp --mask mask.png --skeleton skel.png
  nerveanalyze graph --image img.bmp --mask mask.png --skeleton skel.png
  nerveanalyze prune --skeleton skel.png --out pruned.png
  nerveanalyze config init nerve.yaml`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.Runtime.LogLevel
		if cmd.Flags().Changed("log-level") {
			level, _ = cmd.Flags().GetString("log-level")
		}
		verbose, _ := cmd.Flags().GetCount("verbose")
		if verbose > 0 {
			level = "debug"
		}
		log, err = logger.New(logger.Options{Level: level, Development: cfg.Runtime.LogDevelopment})
		if err != nil {
			return errors.Wrap(err, "initialize logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	RootCmd.PersistentFlags().StringP("config", "c", "nerve.yaml", "Configuration file (defaults apply when missing)")
	RootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	RootCmd.PersistentFlags().CountP("verbose", "v", "Enable debug logging")

	RootCmd.AddCommand(AnalyzeCmd)
	RootCmd.AddCommand(GraphCmd)
	RootCmd.AddCommand(PruneCmd)
	RootCmd.AddCommand(ConfigCmd)
	RootCmd.AddCommand(VersionCmd)
}
