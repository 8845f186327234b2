// Package authors contains the command extracting and compacting author affiliations.
package authors

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/collabgraph/collabgraph/cmd/util"
	"github.com/collabgraph/collabgraph/internal/config"
	"github.com/collabgraph/collabgraph/internal/pipeline"
)

// NewAuthorsCommand returns the command building the compact author file.
func NewAuthorsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authors",
		Short: "Extract and compact the affiliation history of every author",
		Long: `Extract the yearly affiliation countries of every author of an OpenAlex author snapshot and
write one compact record per author. With --country-code-filter the authors that were affiliated
with the country in some year are also written to --filtered-output.`,
		Example: `collabgraph authors --openalex-input-dir ./openalex/data/authors --country-code-filter IT`,
		Args:    cobra.NoArgs,
		RunE:    run,
	}

	bindRunFlags(cmd)
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	return util.Run(cmd, (*config.Config).VerifyAuthors, func(ctx context.Context, r *pipeline.Runner) error {
		_, err := r.Authors(ctx)
		return err
	})
}
