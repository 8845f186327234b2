package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/collabgraph/collabgraph/cmd/util"
)

func runConfigCommand(t *testing.T, args ...string) string {
	t.Helper()

	root := NewRootCommand()
	root.AddCommand(NewConfigCommand())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(append([]string{"config"}, args...))
	require.NoError(t, root.Execute())
	return out.String()
}

func TestConfigCommand(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		viper.Reset()
		util.PrepareTempConfigDir(t)

		out := runConfigCommand(t)
		require.Contains(t, out, "Workers: 0\n")
		require.Contains(t, out, "Output: authors_compressed.jsonl\n")
		require.Contains(t, out, "OutputDir: extra\n")
	})

	t.Run("worker_count_from_environment", func(t *testing.T) {
		viper.Reset()
		util.PrepareTempConfigDir(t)
		t.Setenv("GRAPH_NUM_THREADS", "6")

		require.Contains(t, runConfigCommand(t), "Workers: 6\n")
	})

	t.Run("flag_takes_precedence", func(t *testing.T) {
		viper.Reset()
		util.PrepareTempConfigDir(t)
		t.Setenv("GRAPH_NUM_THREADS", "6")

		require.Contains(t, runConfigCommand(t, "--workers", "2"), "Workers: 2\n")
	})

	t.Run("config_file", func(t *testing.T) {
		viper.Reset()
		util.PrepareTempConfigFile(t, `workers: 3
log:
  format: json
graph:
  intervals: "2000-2010:2011-"
`)

		out := runConfigCommand(t)
		require.Contains(t, out, "Workers: 3\n")
		require.Contains(t, out, "Format: json\n")
		require.Contains(t, out, "2000-2010:2011-")
	})
}

func TestVersionCommand(t *testing.T) {
	cmd := NewVersionCommand()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "collabgraph version dev")
}
