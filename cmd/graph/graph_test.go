package graph

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/collabgraph/collabgraph/cmd"
	"github.com/collabgraph/collabgraph/cmd/util"
	"github.com/collabgraph/collabgraph/internal/errors"
	"github.com/collabgraph/collabgraph/pkg/testutils"
)

func execute(args ...string) error {
	root := cmd.NewRootCommand()
	root.AddCommand(NewGraphCommand())
	root.SetArgs(append([]string{"graph", "--log-level", "none"}, args...))
	return root.Execute()
}

func TestGraphCommand(t *testing.T) {
	viper.Reset()
	util.PrepareTempConfigDir(t)

	fs := afero.NewOsFs()
	dir := t.TempDir()
	input := filepath.Join(dir, "papers.jsonl")
	testutils.MustWriteFile(t, fs, input, testutils.JoinLines(
		testutils.WorkLine("https://openalex.org/W1", 2005, []string{"https://openalex.org/A1", "https://openalex.org/A2"}, []string{"Physics"}),
		testutils.WorkLine("https://openalex.org/W2", 2015, []string{"https://openalex.org/A1", "https://openalex.org/A2"}, []string{"Physics"}),
	))

	require.NoError(t, execute(
		"--input", input,
		"--output", filepath.Join(dir, "dataset.csv"),
		"--format=-2010",
		"--temp-dir", dir,
	))
	require.Equal(t, "2005,W1,A1,A2\n", testutils.MustReadFile(t, fs, filepath.Join(dir, "_2010_dataset.csv")))

	viper.Reset()
	require.NoError(t, execute("--extract-weighted", filepath.Join(dir, "_2010_dataset.csv")))
	require.Equal(t, "A1,A2,1\n", testutils.MustReadFile(t, fs, filepath.Join(dir, "weighted__2010_dataset.csv")))
}

func TestGraphCommandRejectsMalformedIntervals(t *testing.T) {
	viper.Reset()
	util.PrepareTempConfigDir(t)

	err := execute("--input", "papers.jsonl", "--format", "2010-2000")
	require.ErrorIs(t, err, errors.ErrConfiguration)
}
