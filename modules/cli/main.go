package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"sync"
	"time"

	"github.com/felixge/fgprof"
	"github.com/lkarlslund/stixgraph/modules/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	Root = &cobra.Command{
		Use:           "stixgraph",
		Short:         "Query relationships in STIX threat intelligence bundles",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	prerunhooks []func(cmd *cobra.Command, args []string) error

	loglevel     = Root.PersistentFlags().String("loglevel", "info", "Console log level")
	logfile      = Root.PersistentFlags().String("logfile", "", "File to log to, {timestamp} is replaced with the current date")
	logfilelevel = Root.PersistentFlags().String("logfilelevel", "info", "Log file log level")
	logjson      = Root.PersistentFlags().String("logjson", "", "Also write JSON structured log lines to this file")
	logzerotime  = Root.PersistentFlags().Bool("logzerotime", false, "Logged timestamps start from zero when program launches")

	cpuprofile = Root.PersistentFlags().Bool("cpuprofile", false, "Save CPU profile from start to end of processing in datapath")
	dofgprof   = Root.PersistentFlags().Bool("fgprof", false, "Save fgprof wall clock profile from start to end of processing in datapath")

	// Folder with bundles to load and where the persistence database lives
	Datapath = Root.PersistentFlags().String("datapath", "data", "folder to store and read data")

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			ui.Info().Msg(VersionString())
			return nil
		},
	}

	OverrideArgs   []string
	profilestop    []func()
	profilewriters sync.WaitGroup
	jsonlogfile    *os.File
)

func bindFlags(cmd *cobra.Command) {
	apply := func(f *pflag.Flag) {
		// Apply the viper config value to the flag when the flag is not set and viper has a value
		if !f.Changed && viper.IsSet(f.Name) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				sv.Replace(viper.GetStringSlice(f.Name))
			} else {
				f.Value.Set(viper.GetString(f.Name))
			}
		}
	}
	cmd.PersistentFlags().VisitAll(apply)
	cmd.Flags().VisitAll(apply)
	for _, subCommand := range cmd.Commands() {
		bindFlags(subCommand)
	}
}

func loadConfiguration(cmd *cobra.Command) {
	viper.SetEnvPrefix("STIXGRAPH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	configfilename := filepath.Join(*Datapath, "configuration.yaml")
	viper.SetConfigFile(configfilename)
	if err := viper.ReadInConfig(); err == nil {
		ui.Info().Msgf("Using configuration file: %v", viper.ConfigFileUsed())
	} else {
		ui.Debug().Msgf("No settings loaded from %v: %v", configfilename, err.Error())
	}

	bindFlags(cmd)
}

func init() {
	cobra.OnInitialize(func() {
		loadConfiguration(Root)
	})

	Root.AddCommand(versionCmd)
	Root.PersistentPreRunE = prerun
	Root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		for _, stop := range profilestop {
			stop()
		}
		profilestop = nil
		profilewriters.Wait()
		if jsonlogfile != nil {
			ui.SetStructuredOutput(nil)
			jsonlogfile.Close()
			jsonlogfile = nil
		}
		return nil
	}
}

func prerun(cmd *cobra.Command, args []string) error {
	ui.Zerotime = *logzerotime

	ll, err := ui.LogLevelString(*loglevel)
	if err != nil {
		ui.Error().Msgf("Invalid log level: %v - use one of: %v", *loglevel, ui.LogLevelStrings())
	} else {
		ui.SetLoglevel(ll)
	}

	if *logfile != "" {
		timestamp := time.Now().Format(time.DateOnly)
		*logfile = strings.Replace(*logfile, "{timestamp}", timestamp, 1)

		ll, err = ui.LogLevelString(*logfilelevel)
		if err != nil {
			ui.Error().Msgf("Invalid log file log level: %v - use one of: %v", *logfilelevel, ui.LogLevelStrings())
		} else if err = ui.SetLogFile(*logfile, ll); err != nil {
			return err
		}
	} else {
		ui.SetLogFile("", ui.LevelInfo) // Tell logger to stop buffering early output
	}

	if *logjson != "" {
		jsonlogfile, err = os.OpenFile(*logjson, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("could not open JSON log file %v: %v", *logjson, err)
		}
		ui.SetStructuredOutput(jsonlogfile)
	}

	ui.Debug().Msg(VersionString())

	// Ensure the data folder is available
	if _, err := os.Stat(*Datapath); os.IsNotExist(err) {
		err = os.MkdirAll(*Datapath, 0711)
		if err != nil {
			return fmt.Errorf("could not create data folder %v: %v", *Datapath, err)
		}
	}

	if *dofgprof {
		tracefilename := filepath.Join(*Datapath, "stixgraph-fgprof-"+time.Now().Format("06010215040506")+".pprof")
		tracefile, err := os.Create(tracefilename)
		if err != nil {
			return fmt.Errorf("could not create fgprof file %v: %v", tracefilename, err)
		}
		stopper := fgprof.Start(tracefile, fgprof.FormatPprof)
		profilewriters.Add(1)
		profilestop = append(profilestop, func() {
			if err := stopper(); err != nil {
				ui.Error().Msgf("Problem stopping fgprof: %v", err)
			}
			tracefile.Close()
			profilewriters.Done()
		})
	}

	if *cpuprofile {
		pproffile := filepath.Join(*Datapath, "stixgraph-cpuprofile-"+time.Now().Format("06010215040506")+".pprof")
		f, err := os.Create(pproffile)
		if err != nil {
			return fmt.Errorf("could not set up CPU profiling in file %v: %v", pproffile, err)
		}
		pprof.StartCPUProfile(f)
		profilewriters.Add(1)
		profilestop = append(profilestop, func() {
			pprof.StopCPUProfile()
			f.Close()
			profilewriters.Done()
		})
	}

	for _, prerunhook := range prerunhooks {
		if err := prerunhook(cmd, args); err != nil {
			return fmt.Errorf("prerun hook failed: %w", err)
		}
	}
	return nil
}

// AddPreRunHook runs f after logging and the data path are set up, before any command
func AddPreRunHook(f func(cmd *cobra.Command, args []string) error) {
	prerunhooks = append(prerunhooks, f)
}

func Run() error {
	if len(os.Args[1:]) == 0 && len(OverrideArgs) > 0 {
		Root.SetArgs(OverrideArgs)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := Root.ExecuteContext(ctx)

	if err == nil {
		ui.Debug().Msgf("Terminating successfully")
	}

	return err
}
