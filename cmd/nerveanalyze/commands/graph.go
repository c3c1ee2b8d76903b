package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"nerve-tracer/internal/analysis"
)

// GraphCmd prints the classified graph for visualisation tools.
var GraphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the classified nerve graph as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := loadInputs(cmd)
		if err != nil {
			return err
		}
		if bodies, _ := cmd.Flags().GetBool("bodies"); bodies {
			cfg.Profile.ReconstructBodies = true
		}
		res, err := analysis.Analyze(cmd.Context(), in, analysis.Options{Config: cfg, Logger: log})
		if err != nil {
			return err
		}

		ov := res.Overlay()
		if withPixels, _ := cmd.Flags().GetBool("pixels"); !withPixels {
			for i := range ov.Nodes {
				ov.Nodes[i].Pixels, ov.Nodes[i].Body = nil, nil
			}
			for i := range ov.Edges {
				ov.Edges[i].Pixels, ov.Edges[i].Body = nil, nil
			}
		}
		data, err := json.MarshalIndent(ov, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	addInputFlags(GraphCmd)
	GraphCmd.Flags().Bool("pixels", false, "Include per-component pixel and body lists")
	GraphCmd.Flags().Bool("bodies", false, "Reconstruct fibre bodies from the mask (needs --pixels)")
}
