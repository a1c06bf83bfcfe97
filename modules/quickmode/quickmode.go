package quickmode

import (
	"os"

	"github.com/lkarlslund/stixgraph/modules/cli"
	"github.com/lkarlslund/stixgraph/modules/ui"
	"github.com/spf13/cobra"
)

var autoquick bool

func init() {
	quick := &cobra.Command{
		Use:   "quick [paths...]",
		Short: "Serve the bundles in the data path with default settings",
		RunE:  Execute,
	}
	cli.Root.AddCommand(quick)

	// Running without any arguments gets you a working API on the data path
	if len(os.Args[1:]) == 0 {
		cli.OverrideArgs = []string{"quick"}
		autoquick = true
	}
}

func Execute(cmd *cobra.Command, args []string) error {
	if autoquick {
		ui.Info().Msg("No arguments provided, activating 'quick' mode: will load bundles from the data path and serve the query API. Use command line options to change this behaviour.")
	}

	cli.Root.SetArgs(append([]string{"serve"}, args...))
	return cli.Root.ExecuteContext(cmd.Context())
}
