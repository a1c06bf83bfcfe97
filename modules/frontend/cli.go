package frontend

import (
	"runtime/debug"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/lkarlslund/stixgraph/modules/analyze"
	"github.com/lkarlslund/stixgraph/modules/cli"
	"github.com/lkarlslund/stixgraph/modules/persistence"
	"github.com/lkarlslund/stixgraph/modules/ui"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

var (
	Command = &cobra.Command{
		Use:   "serve [paths...]",
		Short: "Load bundles and serve the relationship query API",
	}

	bind        = Command.Flags().String("bind", "127.0.0.1:8080", "Address and port of webservice to bind to")
	certificate = Command.Flags().String("certificate", "", "Path to or complete certificate file in PEM format")
	privateKey  = Command.Flags().String("privatekey", "", "Path to or complete private key in PEM format")
	profiling   = Command.Flags().Bool("pprof", false, "Expose the Go profiler under /debug/pprof")
	queries     = Command.Flags().Bool("queries", true, "Enable saved queries stored in the persistence database")
)

func init() {
	// Set here rather than in the literal above, since Execute reads flags declared from Command
	Command.RunE = Execute
	Command.Flags().AddFlagSet(analyze.LoadFlags)
	cli.Root.AddCommand(Command)
}

func Execute(cmd *cobra.Command, args []string) error {
	// Memory, GC and CPU settings
	memlimit.SetGoMemLimit(0.8)
	debug.SetGCPercent(35)
	maxprocs.Set(maxprocs.Logger(ui.Debug().Msgf))

	var options []optionsetter
	if *certificate != "" && *privateKey != "" {
		options = append(options, WithCert(*certificate, *privateKey))
	}
	if *profiling {
		options = append(options, WithProfiling())
	}

	var db *persistence.Database
	if *queries {
		var err error
		db, err = persistence.Open(*cli.Datapath)
		if err != nil {
			ui.Warn().Msgf("Saved queries disabled, could not open persistence database: %v", err)
		} else {
			defer db.Close()
			options = append(options, WithPersistence(db))
		}
	}

	ws, err := NewWebservice(options...)
	if err != nil {
		return err
	}

	// Serve right away, data endpoints answer 503 until loading is done
	ws.SetStatus(Loading)
	go func() {
		c, err := analyze.LoadDataFrom(cmd.Context(), db, args...)
		if err != nil {
			ui.Error().Msgf("Problem loading data: %v", err)
			ws.SetStatus(Error)
			return
		}
		ws.SetData(c)
		ui.Info().Msgf("%v objects ready for queries", c.Len())
	}()

	return ws.Run(cmd.Context(), *bind)
}
