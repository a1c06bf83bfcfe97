package persistence

import (
	"fmt"

	"github.com/lkarlslund/stixgraph/modules/bundle"
	"github.com/lkarlslund/stixgraph/modules/cli"
	"github.com/lkarlslund/stixgraph/modules/stix"
	"github.com/lkarlslund/stixgraph/modules/ui"
	"github.com/spf13/cobra"
)

var (
	persistenceCmd = &cobra.Command{
		Use:   "persistence",
		Short: "Maintenance tools for the persistence database",
	}
	dumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "Dumps the persistence database as a STIX bundle",
		Args:  cobra.NoArgs,
	}
	output     = dumpCmd.Flags().String("output", "persistence-dump.json", "Output file for dump, use .json.lz4 to compress")
	restoreCmd = &cobra.Command{
		Use:   "restore",
		Short: "Restores the persistence database from a STIX bundle",
		Args:  cobra.NoArgs,
	}
	input  = restoreCmd.Flags().String("input", "persistence-dump.json", "Bundle file to restore")
	strict = restoreCmd.Flags().Bool("strict", false, "Fail on the first object that does not decode")
)

func init() {
	cli.Root.AddCommand(persistenceCmd)
	persistenceCmd.AddCommand(dumpCmd)
	dumpCmd.RunE = dump
	persistenceCmd.AddCommand(restoreCmd)
	restoreCmd.RunE = restore
}

func dump(cmd *cobra.Command, args []string) error {
	db, err := Open(*cli.Datapath)
	if err != nil {
		return fmt.Errorf("could not open database: %v", err)
	}
	defer db.Close()

	c, err := db.LoadCollection()
	if err != nil {
		return err
	}
	objects := make([]stix.Object, 0, c.Len())
	c.Iterate(func(o stix.Object) bool {
		objects = append(objects, o)
		return true
	})
	if err = bundle.WriteFile(*output, "", objects); err != nil {
		return fmt.Errorf("could not write %v: %v", *output, err)
	}
	ui.Info().Msgf("Dumped %v objects to %v", len(objects), *output)
	return nil
}

func restore(cmd *cobra.Command, args []string) error {
	result, err := bundle.DecodeFile(*input, *strict)
	if err != nil {
		return err
	}

	db, err := Open(*cli.Datapath)
	if err != nil {
		return fmt.Errorf("could not open database: %v", err)
	}
	defer db.Close()

	records := make([]ObjectRecord, 0, len(result.Objects))
	for _, o := range result.Objects {
		record, err := NewObjectRecord(o)
		if err != nil {
			return err
		}
		records = append(records, record)
	}
	if err = db.Objects().PutMany(records); err != nil {
		return err
	}
	ui.Info().Msgf("Restored %v objects from %v (%v skipped)", len(records), *input, len(result.Failed))
	return nil
}
