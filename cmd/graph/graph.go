// Package graph contains the command generating co-authorship edge lists.
package graph

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/collabgraph/collabgraph/cmd/util"
	"github.com/collabgraph/collabgraph/internal/config"
	"github.com/collabgraph/collabgraph/internal/pipeline"
)

// NewGraphCommand returns the command generating co-authorship edge lists.
func NewGraphCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate co-authorship edge lists split by publication year",
		Long: `Generate one "<year>,<work>,<author>,<author>" line per pair of co-authors of every work and
write it to the file of the first year interval of --format containing the publication year. Work
topics are written to metadata_<output>. With --extract-weighted an existing edge list is instead
aggregated into "<author>,<author>,<count>" lines and nothing else runs.`,
		Example: `collabgraph graph --input papers-filtered.jsonl --format "-1999:2000-2009:2010-"`,
		Args:    cobra.NoArgs,
		RunE:    run,
	}

	bindRunFlags(cmd)
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	return util.Run(cmd, (*config.Config).VerifyGraph, func(ctx context.Context, r *pipeline.Runner) error {
		if r.Config().Graph.ExtractWeighted != "" {
			_, err := r.Weighted(ctx)
			return err
		}
		_, err := r.Graph(ctx)
		return err
	})
}
