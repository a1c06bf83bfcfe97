package analyze

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lkarlslund/stixgraph/modules/bundle"
	"github.com/lkarlslund/stixgraph/modules/cli"
	"github.com/lkarlslund/stixgraph/modules/collection"
	"github.com/lkarlslund/stixgraph/modules/persistence"
	"github.com/lkarlslund/stixgraph/modules/stix"
	"github.com/lkarlslund/stixgraph/modules/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	loadCmd = &cobra.Command{
		Use:   "load [paths...]",
		Short: "Load STIX bundles and show statistics",
	}
	save = loadCmd.Flags().Bool("save", false, "Save loaded objects to the persistence database")

	neighborsCmd = &cobra.Command{
		Use:   "neighbors <id>",
		Short: "List relationships of an object matching a filter",
		Args:  cobra.ExactArgs(1),
	}
	direction        = neighborsCmd.Flags().String("direction", "out", "Direction relative to the object: out or in")
	relationshipType = neighborsCmd.Flags().String("type", "uses", "Relationship type")
	peerType         = neighborsCmd.Flags().String("peer", "", "Type of the object at the other end, e.g. malware")
	matchMode        = neighborsCmd.Flags().String("mode", "strict", "strict also checks the relationship type, literal only checks the peer type")

	walkCmd = &cobra.Command{
		Use:   "walk <id>",
		Short: "Breadth first walk from an object following filters",
		Args:  cobra.ExactArgs(1),
	}
	walkFilters = walkCmd.Flags().StringSlice("filter", nil, "Filters as direction:relationship-type:peer-type, can be repeated")
	walkDepth   = walkCmd.Flags().Int("depth", 0, "Maximum depth (0 is unlimited)")
	walkMode    = walkCmd.Flags().String("mode", "strict", "strict or literal matching")

	typesCmd = &cobra.Command{
		Use:   "types",
		Short: "List known object and relationship types",
		Args:  cobra.NoArgs,
		RunE:  types,
	}

	danglingCmd = &cobra.Command{
		Use:   "dangling [paths...]",
		Short: "List relationships pointing at objects that are not loaded",
		RunE:  dangling,
	}

	exportCmd = &cobra.Command{
		Use:   "export <output>",
		Short: "Load everything and write it back as one bundle (.json or .json.lz4)",
		Args:  cobra.ExactArgs(1),
		RunE:  export,
	}
)

func init() {
	// Set here rather than in the literals above, since these read flags declared from the commands
	loadCmd.RunE = load
	neighborsCmd.RunE = neighbors
	walkCmd.RunE = walk

	for _, cmd := range []*cobra.Command{loadCmd, neighborsCmd, walkCmd, danglingCmd, exportCmd} {
		cmd.Flags().AddFlagSet(LoadFlags)
		cli.Root.AddCommand(cmd)
	}
	cli.Root.AddCommand(typesCmd)
}

func load(cmd *cobra.Command, args []string) error {
	c, err := LoadData(cmd.Context(), args...)
	if err != nil {
		return err
	}

	stats := c.Statistics()
	data := pterm.TableData{{"Object type", "Count"}}
	for _, name := range sortedKeys(stats.Objects) {
		data = append(data, []string{name, fmt.Sprint(stats.Objects[name])})
	}
	for _, name := range sortedKeys(stats.Relationships) {
		data = append(data, []string{"relationship: " + name, fmt.Sprint(stats.Relationships[name])})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	if stats.Dangling > 0 {
		ui.Warn().Msgf("%v relationships reference objects that are not loaded", stats.Dangling)
	}

	if *save {
		db, err := persistence.Open(*cli.Datapath)
		if err != nil {
			return err
		}
		defer db.Close()
		saved, err := db.SaveCollection(c)
		if err != nil {
			return err
		}
		ui.Info().Msgf("Saved %v objects to persistence database", saved)
	}
	return nil
}

func neighbors(cmd *cobra.Command, args []string) error {
	d, err := stix.ParseEdgeDirection(*direction)
	if err != nil {
		return err
	}
	rt, err := stix.ParseRelationshipType(*relationshipType)
	if err != nil {
		return err
	}
	mode, err := stix.ParseMatchMode(*matchMode)
	if err != nil {
		return err
	}
	if *peerType == "" {
		return errors.New("--peer is required")
	}

	c, err := LoadData(cmd.Context())
	if err != nil {
		return err
	}
	anchor := stix.Id(args[0])
	if _, found := c.Get(anchor); !found {
		ui.Warn().Msgf("%v is not loaded, showing relationships anyway", anchor)
	}

	data := pterm.TableData{{"Relationship", "Type", "Peer", "Name"}}
	for _, n := range c.Neighbors(anchor, stix.NewFilter(d, rt, *peerType), mode) {
		data = append(data, []string{n.Relationship.Common().ID.String(), n.Relationship.RelationshipType().String(), n.Peer.String(), name(n.Object)})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func walk(cmd *cobra.Command, args []string) error {
	var filters []stix.Filter
	for _, fs := range *walkFilters {
		f, err := stix.ParseFilter(fs)
		if err != nil {
			return err
		}
		filters = append(filters, f)
	}
	if len(filters) == 0 {
		return errors.New("at least one --filter is required")
	}
	mode, err := stix.ParseMatchMode(*walkMode)
	if err != nil {
		return err
	}

	c, err := LoadData(cmd.Context())
	if err != nil {
		return err
	}

	data := pterm.TableData{{"Depth", "From", "Relationship", "Peer", "Name"}}
	c.Walk(stix.Id(args[0]), filters, mode, *walkDepth, func(step collection.WalkStep) bool {
		data = append(data, []string{fmt.Sprint(step.Depth), step.From.String(), step.Relationship.RelationshipType().String(), step.Peer.String(), name(step.Object)})
		return true
	})
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func types(cmd *cobra.Command, args []string) error {
	pterm.DefaultSection.Println("Object types")
	for _, t := range stix.RegisteredTypes() {
		pterm.Println(t)
	}
	pterm.DefaultSection.Println("Relationship types")
	for _, t := range stix.RelationshipTypeStrings() {
		pterm.Println(t)
	}
	return nil
}

func dangling(cmd *cobra.Command, args []string) error {
	c, err := LoadData(cmd.Context(), args...)
	if err != nil {
		return err
	}
	data := pterm.TableData{{"Relationship", "Source", "Type", "Target"}}
	for _, r := range c.Dangling() {
		data = append(data, []string{r.Common().ID.String(), r.SourceRef().String(), r.RelationshipType().String(), r.TargetRef().String()})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func export(cmd *cobra.Command, args []string) error {
	c, err := LoadData(cmd.Context())
	if err != nil {
		return err
	}
	objects := make([]stix.Object, 0, c.Len())
	c.Iterate(func(o stix.Object) bool {
		objects = append(objects, o)
		return true
	})
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Common().ID < objects[j].Common().ID
	})
	if err = bundle.WriteFile(args[0], "", objects); err != nil {
		return err
	}
	ui.Info().Msgf("Exported %v objects to %v", len(objects), args[0])
	return nil
}

func name(o stix.Object) string {
	if o == nil {
		return "(not loaded)"
	}
	return stix.Name(o)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
