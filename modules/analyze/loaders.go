package analyze

import (
	"context"
	"fmt"

	"github.com/lkarlslund/stixgraph/modules/bundle"
	"github.com/lkarlslund/stixgraph/modules/cli"
	"github.com/lkarlslund/stixgraph/modules/collection"
	"github.com/lkarlslund/stixgraph/modules/persistence"
	"github.com/lkarlslund/stixgraph/modules/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Shared by every command that needs data loaded
var (
	LoadFlags = pflag.NewFlagSet("load", pflag.ContinueOnError)

	pattern        = LoadFlags.String("pattern", bundle.DefaultPattern, "Glob for bundle file names when scanning folders")
	strict         = LoadFlags.Bool("strict", false, "Fail loading if any object does not decode")
	workers        = LoadFlags.Int("workers", 0, "Number of files decoded in parallel (0 is one per CPU)")
	usePersistence = LoadFlags.Bool("persistence", false, "Also load objects saved in the persistence database")
)

func init() {
	cli.AddPreRunHook(checkLoadFlags)
}

func loaderOptions() bundle.Options {
	return bundle.Options{
		Pattern: *pattern,
		Strict:  *strict,
		Workers: *workers,
	}
}

// checkLoadFlags rejects bad load flags before any file is read
func checkLoadFlags(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Lookup("pattern") == nil {
		return nil
	}
	if *workers < 0 {
		return fmt.Errorf("--workers must not be negative, got %v", *workers)
	}
	_, err := bundle.NewLoader(loaderOptions())
	return err
}

// LoadData reads bundles from paths, or the data path if none are given
func LoadData(ctx context.Context, paths ...string) (*collection.Collection, error) {
	return LoadDataFrom(ctx, nil, paths...)
}

// LoadDataFrom is LoadData using db when --persistence is set, opening it if db is nil
func LoadDataFrom(ctx context.Context, db *persistence.Database, paths ...string) (*collection.Collection, error) {
	if len(paths) == 0 {
		paths = []string{*cli.Datapath}
	}

	ld, err := bundle.NewLoader(loaderOptions())
	if err != nil {
		return nil, err
	}

	c, results, err := ld.Load(ctx, paths...)
	if err != nil {
		return nil, err
	}

	var loaded, skipped, failed int
	for _, fr := range results {
		loaded += fr.Loaded
		skipped += fr.Skipped
		if fr.Err != nil {
			failed++
		}
	}
	ui.Info().Msgf("Loaded %v objects from %v files (%v objects skipped, %v files failed)", loaded, len(results), skipped, failed)

	if *usePersistence {
		if db == nil {
			if db, err = persistence.Open(*cli.Datapath); err != nil {
				return nil, err
			}
			defer db.Close()
		}
		persisted, err := db.LoadCollection()
		if err != nil {
			return nil, err
		}
		ui.Info().Msgf("Merging %v objects from persistence database", persisted.Len())
		c.Merge(persisted)
	}

	return c, nil
}
