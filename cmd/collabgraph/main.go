package main

import (
	"os"

	"github.com/collabgraph/collabgraph/cmd"
	"github.com/collabgraph/collabgraph/cmd/authors"
	"github.com/collabgraph/collabgraph/cmd/graph"
	"github.com/collabgraph/collabgraph/cmd/papers"
	"github.com/collabgraph/collabgraph/cmd/stats"
)

func main() {
	rootCmd := cmd.NewRootCommand()

	rootCmd.AddCommand(authors.NewAuthorsCommand())
	rootCmd.AddCommand(papers.NewPapersCommand())
	rootCmd.AddCommand(graph.NewGraphCommand())
	rootCmd.AddCommand(stats.NewStatsCommand())
	rootCmd.AddCommand(cmd.NewVersionCommand())
	rootCmd.AddCommand(cmd.NewConfigCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
