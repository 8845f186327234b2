package stats

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

	flags.String("input", defaultConfig.Stats.Input, "the works, one JSON record per line, to compute statistics over")
	util.MustBindPFlag("stats.input", flags.Lookup("input"))
	util.MustBindEnv("stats.input", "COLLABGRAPH_STATS_INPUT")

	flags.String("output-dir", defaultConfig.Stats.OutputDir, "the directory receiving the distribution tables")
	util.MustBindPFlag("stats.outputDir", flags.Lookup("output-dir"))
	util.MustBindEnv("stats.outputDir", "COLLABGRAPH_STATS_OUTPUT_DIR")

	flags.String("sqlite", defaultConfig.Stats.SQLite, "a SQLite database to also export the tables to")
	util.MustBindPFlag("stats.sqlite", flags.Lookup("sqlite"))
	util.MustBindEnv("stats.sqlite", "COLLABGRAPH_STATS_SQLITE")
}
