// Package stats contains the command computing corpus statistics.
package stats

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/collabgraph/collabgraph/cmd/util"
	"github.com/collabgraph/collabgraph/internal/config"
	"github.com/collabgraph/collabgraph/internal/pipeline"
)

// NewStatsCommand returns the command computing corpus statistics.
func NewStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [input]",
		Short: "Compute distribution tables over a file of works",
		Long: `Compute papers per year, active authors per year, papers per author, authors per paper and
papers per topic over a file of works, one JSON record per line, and write each distribution to its
own CSV file in --output-dir together with a summary table.`,
		Example: `collabgraph stats papers-filtered.jsonl --sqlite stats.db`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    run,
	}

	bindRunFlags(cmd)
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		viper.Set("stats.input", args[0])
	}
	return util.Run(cmd, (*config.Config).VerifyStats, func(ctx context.Context, r *pipeline.Runner) error {
		_, err := r.Stats(ctx)
		return err
	})
}
