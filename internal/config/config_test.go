package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/collabgraph/collabgraph/internal/errors"
)

func TestVerifyConfig(t *testing.T) {
	t.Run("default_config_is_valid", func(t *testing.T) {
		require.NoError(t, DefaultConfig().Verify())
	})

	t.Run("negative_workers", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Workers = -1

		err := cfg.Verify()
		require.ErrorIs(t, err, errors.ErrConfiguration)
		require.EqualError(t, err, "config 'workers' (-1) cannot be negative")
	})

	t.Run("unknown_log_format", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Log.Format = "xml"

		require.EqualError(t, cfg.Verify(), "config 'log.format' must be one of ['text', 'json'], got 'xml'")
	})

	t.Run("sample_ratio_out_of_range", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Trace.SampleRatio = 1.5

		require.ErrorIs(t, cfg.Verify(), errors.ErrConfiguration)
	})

	t.Run("metrics_without_addr", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = ""

		require.ErrorIs(t, cfg.Verify(), errors.ErrConfiguration)
	})
}

func TestVerifyAuthors(t *testing.T) {
	cfg := MustDefaultConfig()
	require.ErrorIs(t, cfg.VerifyAuthors(), errors.ErrConfiguration)

	cfg.Authors.InputDir = "/snapshot/authors"
	require.NoError(t, cfg.VerifyAuthors())

	cfg.Authors.Country = "USA"
	require.EqualError(t, cfg.VerifyAuthors(), "config 'authors.country' must be a two letter country code, got 'USA'")

	cfg.Authors.Country = "US"
	require.NoError(t, cfg.VerifyAuthors())
}

func TestVerifyPapers(t *testing.T) {
	valid := func() *Config {
		cfg := MustDefaultConfig()
		cfg.Papers = PapersConfig{
			Extract:        true,
			InputDir:       "/snapshot/works",
			Output:         DefaultPapersOutput,
			Filter:         true,
			Topic:          "Computer science",
			Country:        "IT",
			FilteredOutput: DefaultPapersFilteredOutput,
			AuthorFilter:   "authors_filtered.jsonl",
		}
		return cfg
	}
	require.NoError(t, valid().VerifyPapers())

	var testcases = map[string]func(cfg *Config){
		`no_command`:             func(cfg *Config) { cfg.Papers.Extract, cfg.Papers.Filter = false, false },
		`no_author_filter`:       func(cfg *Config) { cfg.Papers.AuthorFilter = "" },
		`extract_without_input`:  func(cfg *Config) { cfg.Papers.InputDir = "" },
		`filter_without_topic`:   func(cfg *Config) { cfg.Papers.Topic = "" },
		`filter_without_country`: func(cfg *Config) { cfg.Papers.Country = "" },
		`bad_country`:            func(cfg *Config) { cfg.Papers.Country = "I" },
		`skip_merge_alone`: func(cfg *Config) {
			cfg.Papers.Filter = false
			cfg.Papers.SkipMerge = true
		},
	}

	for name, mutate := range testcases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			require.ErrorIs(t, cfg.VerifyPapers(), errors.ErrConfiguration)
		})
	}

	t.Run("filter_only", func(t *testing.T) {
		cfg := valid()
		cfg.Papers.Extract = false
		cfg.Papers.InputDir = ""
		require.NoError(t, cfg.VerifyPapers())
	})
}

func TestVerifyGraph(t *testing.T) {
	cfg := MustDefaultConfig()
	require.ErrorIs(t, cfg.VerifyGraph(), errors.ErrConfiguration)

	cfg.Graph.Input = "papers-filtered.jsonl"
	require.NoError(t, cfg.VerifyGraph())

	cfg.Graph.Intervals = "2000-2010:oops-"
	require.ErrorIs(t, cfg.VerifyGraph(), errors.ErrConfiguration)

	cfg.Graph.Input = ""
	cfg.Graph.ExtractWeighted = "all_dataset.csv"
	require.NoError(t, cfg.VerifyGraph())
}

func TestVerifyStats(t *testing.T) {
	cfg := MustDefaultConfig()
	require.ErrorIs(t, cfg.VerifyStats(), errors.ErrConfiguration)

	cfg.Stats.Input = "papers.jsonl"
	require.NoError(t, cfg.VerifyStats())
}
