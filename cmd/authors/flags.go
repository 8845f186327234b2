package authors

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

	flags.StringP("openalex-input-dir", "i", defaultConfig.Authors.InputDir, "the directory of the OpenAlex author snapshot")
	util.MustBindPFlag("authors.inputDir", flags.Lookup("openalex-input-dir"))
	util.MustBindEnv("authors.inputDir", "COLLABGRAPH_AUTHORS_INPUT_DIR")

	flags.StringP("output-file-name", "o", defaultConfig.Authors.Output, "the compact author file to write")
	util.MustBindPFlag("authors.output", flags.Lookup("output-file-name"))
	util.MustBindEnv("authors.output", "COLLABGRAPH_AUTHORS_OUTPUT")

	flags.StringP("country-code-filter", "f", defaultConfig.Authors.Country, "two letter country code; authors ever affiliated with it are also written to the filtered output")
	util.MustBindPFlag("authors.country", flags.Lookup("country-code-filter"))
	util.MustBindEnv("authors.country", "COLLABGRAPH_AUTHORS_COUNTRY")

	flags.String("filtered-output", defaultConfig.Authors.FilteredOutput, "the file receiving the authors affiliated with the filter country")
	util.MustBindPFlag("authors.filteredOutput", flags.Lookup("filtered-output"))
	util.MustBindEnv("authors.filteredOutput", "COLLABGRAPH_AUTHORS_FILTERED_OUTPUT")
}
