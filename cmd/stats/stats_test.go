package stats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/collabgraph/collabgraph/cmd"
	"github.com/collabgraph/collabgraph/cmd/util"
	"github.com/collabgraph/collabgraph/internal/errors"
	"github.com/collabgraph/collabgraph/internal/transform"
	"github.com/collabgraph/collabgraph/pkg/testutils"
)

func execute(args ...string) error {
	root := cmd.NewRootCommand()
	root.AddCommand(NewStatsCommand())
	root.SetArgs(append([]string{"stats"}, args...))
	return root.Execute()
}

func TestStatsCommand(t *testing.T) {
	viper.Reset()
	util.PrepareTempConfigDir(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "papers.jsonl")
	require.NoError(t, os.WriteFile(input, []byte(testutils.JoinLines(
		testutils.WorkLine("W1", 2020, []string{"A1", "A2"}, []string{"CS"}),
		testutils.WorkLine("W2", 2021, []string{"A1"}, []string{"CS"}),
	)), 0o644))

	outDir := filepath.Join(dir, "extra")
	require.NoError(t, execute(input,
		"--output-dir", outDir,
		"--workers", "2",
		"--temp-dir", dir,
		"--log-level", "none",
	))

	got, err := os.ReadFile(filepath.Join(outDir, transform.PapersPerYearFile))
	require.NoError(t, err)
	require.Equal(t, testutils.JoinLines("year,number-of-papers", "2020,1", "2021,1"), string(got))
}

func TestStatsCommandRequiresInput(t *testing.T) {
	viper.Reset()
	util.PrepareTempConfigDir(t)

	err := execute("--log-level", "none")
	require.ErrorIs(t, err, errors.ErrConfiguration)
}
