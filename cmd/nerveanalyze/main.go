// Command nerveanalyze turns corneal confocal nerve skeletons into morphology
// metrics.
package main

import (
	"os"

	"nerve-tracer/cmd/nerveanalyze/commands"
)

func main() {
	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
