// Package papers contains the command extracting and filtering works.
package papers

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/collabgraph/collabgraph/cmd/util"
	"github.com/collabgraph/collabgraph/internal/config"
	"github.com/collabgraph/collabgraph/internal/pipeline"
)

// NewPapersCommand returns the command extracting and filtering works.
func NewPapersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "papers",
		Short: "Extract the works of a set of authors and filter them by topic and country",
		Long: `Extract the works of an OpenAlex work snapshot written by at least one author of the
author filter file (--extract), then keep the works listing a topic with an author affiliated with
a country in the publication year (--filter). Both phases may run in one invocation; with
--skip-merge the filter reads the extractor's part files without merging them first.`,
		Example: `collabgraph papers --extract --filter --input-directory ./openalex/data/works --author-filter authors_filtered.jsonl --affiliate IT --topic-name "Computer science"`,
		Args:    cobra.NoArgs,
		RunE:    run,
	}

	bindRunFlags(cmd)
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	return util.Run(cmd, (*config.Config).VerifyPapers, func(ctx context.Context, r *pipeline.Runner) error {
		_, err := r.Papers(ctx)
		return err
	})
}
