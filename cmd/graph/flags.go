package graph

import (
	"github.com/spf13/cobra"

	"github.com/collabgraph/collabgraph/cmd/util"
	"github.com/collabgraph/collabgraph/internal/config"
)

// bindRunFlags binds the cobra cmd flags to the equivalent config value being managed
// by viper. This bridges the config between cobra flags and viper flags.
func bindRunFlags(command *cobra.Command) {
	defaultConfig := config.DefaultConfig()
	flags := command.Flags()

	flags.String("input", defaultConfig.Graph.Input, "the works, one JSON record per line, to extract the graph from")
	util.MustBindPFlag("graph.input", flags.Lookup("input"))
	util.MustBindEnv("graph.input", "COLLABGRAPH_GRAPH_INPUT")

	flags.String("output", defaultConfig.Graph.Output, "the base name of the edge list files")
	util.MustBindPFlag("graph.output", flags.Lookup("output"))
	util.MustBindEnv("graph.output", "COLLABGRAPH_GRAPH_OUTPUT")

	flags.String("format", defaultConfig.Graph.Intervals, "colon separated list of <start>-<end> year intervals, either bound may be omitted")
	util.MustBindPFlag("graph.intervals", flags.Lookup("format"))
	util.MustBindEnv("graph.intervals", "COLLABGRAPH_GRAPH_INTERVALS")

	flags.String("extract-weighted", defaultConfig.Graph.ExtractWeighted, "aggregate the given edge list into weighted edges and exit")
	util.MustBindPFlag("graph.extractWeighted", flags.Lookup("extract-weighted"))
	util.MustBindEnv("graph.extractWeighted", "COLLABGRAPH_GRAPH_EXTRACT_WEIGHTED")
}
