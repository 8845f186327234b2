package papers

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

	flags.Bool("extract", defaultConfig.Papers.Extract, "run the extraction phase")
	util.MustBindPFlag("papers.extract", flags.Lookup("extract"))
	util.MustBindEnv("papers.extract", "COLLABGRAPH_PAPERS_EXTRACT")

	flags.Bool("filter", defaultConfig.Papers.Filter, "run the filtering phase")
	util.MustBindPFlag("papers.filter", flags.Lookup("filter"))
	util.MustBindEnv("papers.filter", "COLLABGRAPH_PAPERS_FILTER")

	flags.Bool("skip-merge", defaultConfig.Papers.SkipMerge, "let the filtering phase read the extraction part files without merging them")
	util.MustBindPFlag("papers.skipMerge", flags.Lookup("skip-merge"))
	util.MustBindEnv("papers.skipMerge", "COLLABGRAPH_PAPERS_SKIP_MERGE")

	flags.String("input-directory", defaultConfig.Papers.InputDir, "the directory of the OpenAlex work snapshot")
	util.MustBindPFlag("papers.inputDir", flags.Lookup("input-directory"))
	util.MustBindEnv("papers.inputDir", "COLLABGRAPH_PAPERS_INPUT_DIR")

	flags.String("author-filter", defaultConfig.Papers.AuthorFilter, "the compact author file produced by the authors command")
	util.MustBindPFlag("papers.authorFilter", flags.Lookup("author-filter"))
	util.MustBindEnv("papers.authorFilter", "COLLABGRAPH_PAPERS_AUTHOR_FILTER")

	flags.String("affiliate", defaultConfig.Papers.Country, "two letter country code an author must be affiliated with in the publication year")
	util.MustBindPFlag("papers.country", flags.Lookup("affiliate"))
	util.MustBindEnv("papers.country", "COLLABGRAPH_PAPERS_COUNTRY")

	flags.String("topic-name", defaultConfig.Papers.Topic, "the concept display name a work must list")
	util.MustBindPFlag("papers.topic", flags.Lookup("topic-name"))
	util.MustBindEnv("papers.topic", "COLLABGRAPH_PAPERS_TOPIC")

	flags.String("output", defaultConfig.Papers.Output, "the file of extracted works, also the input of the filtering phase")
	util.MustBindPFlag("papers.output", flags.Lookup("output"))
	util.MustBindEnv("papers.output", "COLLABGRAPH_PAPERS_OUTPUT")

	flags.String("filtered-output", defaultConfig.Papers.FilteredOutput, "the file of filtered works")
	util.MustBindPFlag("papers.filteredOutput", flags.Lookup("filtered-output"))
	util.MustBindEnv("papers.filteredOutput", "COLLABGRAPH_PAPERS_FILTERED_OUTPUT")
}
