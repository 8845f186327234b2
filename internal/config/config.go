// Package config contains the configuration of every collabgraph command.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/collabgraph/collabgraph/internal/errors"
	"github.com/collabgraph/collabgraph/internal/partition"
)

const (
	DefaultAuthorsOutput         = "authors_compressed.jsonl"
	DefaultAuthorsFilteredOutput = "authors_filtered.jsonl"
	DefaultPapersOutput          = "papers.jsonl"
	DefaultPapersFilteredOutput  = "papers-filtered.jsonl"
	DefaultGraphOutput           = "dataset.csv"
	DefaultStatsOutputDir        = "extra"

	// WorkersEnv overrides the number of workers of every command.
	WorkersEnv = "GRAPH_NUM_THREADS"
)

type LogConfig struct {
	// Format is the log format to use in the log output (e.g. 'text' or 'json')
	Format string

	// Level is the log level to use in the log output (e.g. 'none', 'debug', or 'info')
	Level string
}

type TraceConfig struct {
	Enabled     bool
	OTLP        OTLPTraceConfig `mapstructure:"otlp"`
	SampleRatio float64
	ServiceName string

	// SlowRunThreshold drops the traces of stages faster than the threshold. Zero keeps all.
	SlowRunThreshold time.Duration
}

type OTLPTraceConfig struct {
	Endpoint string
}

type MetricConfig struct {
	Enabled bool
	Addr    string
}

// AuthorsConfig configures affiliation extraction and compaction.
type AuthorsConfig struct {
	// InputDir is the root of the author snapshot.
	InputDir string
	// Output receives one compact affiliation record per author.
	Output string
	// Country, when set, additionally writes the authors ever affiliated with it.
	Country        string
	FilteredOutput string
}

// PapersConfig configures work extraction and filtering.
type PapersConfig struct {
	// Extract keeps the works of the snapshot under InputDir written by an author
	// of AuthorFilter.
	Extract  bool
	InputDir string
	Output   string

	// Filter keeps the extracted works matching Topic with an author affiliated
	// with Country in the publication year.
	Filter         bool
	Topic          string
	Country        string
	FilteredOutput string

	// AuthorFilter is a compact author file produced by the authors command.
	AuthorFilter string

	// SkipMerge lets the filter consume the extractor's part files directly.
	SkipMerge bool
}

// GraphConfig configures collaboration edge generation.
type GraphConfig struct {
	Input  string
	Output string
	// Intervals is a colon separated list of `start-end` year intervals.
	Intervals string
	// ExtractWeighted, when set, only aggregates the given edge list into weighted edges.
	ExtractWeighted string
}

// StatsConfig configures corpus statistics.
type StatsConfig struct {
	Input     string
	OutputDir string
	// SQLite, when set, is the database the tables are exported to.
	SQLite string
}

type Config struct {
	// Workers is the number of workers of a run. Zero selects the number of CPUs.
	Workers int
	// TempDir receives per-worker part files.
	TempDir string

	Log     LogConfig
	Trace   TraceConfig
	Metrics MetricConfig

	Authors AuthorsConfig
	Papers  PapersConfig
	Graph   GraphConfig
	Stats   StatsConfig
}

// Verify checks the options shared by every command.
func (cfg *Config) Verify() error {
	if cfg.Workers < 0 {
		return errors.Configuration("config 'workers' (%d) cannot be negative", cfg.Workers)
	}

	switch cfg.Log.Format {
	case "text", "json":
	default:
		return errors.Configuration("config 'log.format' must be one of ['text', 'json'], got '%s'", cfg.Log.Format)
	}

	if cfg.Trace.SampleRatio < 0 || cfg.Trace.SampleRatio > 1 {
		return errors.Configuration("config 'trace.sampleRatio' must be within [0, 1], got %v", cfg.Trace.SampleRatio)
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return errors.Configuration("config 'metrics.addr' must be set when metrics are enabled")
	}

	return nil
}

// VerifyAuthors checks the options of the authors command.
func (cfg *Config) VerifyAuthors() error {
	if err := cfg.Verify(); err != nil {
		return err
	}
	if cfg.Authors.InputDir == "" {
		return errors.Configuration("'authors.inputDir' must be set")
	}
	if cfg.Authors.Output == "" {
		return errors.Configuration("'authors.output' must be set")
	}
	if cfg.Authors.Country != "" {
		if err := verifyCountry("authors.country", cfg.Authors.Country); err != nil {
			return err
		}
		if cfg.Authors.FilteredOutput == "" {
			return errors.Configuration("'authors.filteredOutput' must be set when 'authors.country' is")
		}
	}
	return nil
}

// VerifyPapers checks the options of the papers command.
func (cfg *Config) VerifyPapers() error {
	if err := cfg.Verify(); err != nil {
		return err
	}

	p := cfg.Papers
	if !p.Extract && !p.Filter {
		return errors.Configuration("no command given: at least one of 'papers.extract' and 'papers.filter' must be set")
	}
	if p.AuthorFilter == "" {
		return errors.Configuration("'papers.authorFilter' must be set")
	}
	if p.Extract && p.InputDir == "" {
		return errors.Configuration("'papers.inputDir' must be set when extracting")
	}
	if p.Filter {
		if p.Topic == "" || p.Country == "" {
			return errors.Configuration("'papers.topic' and 'papers.country' must be set when filtering")
		}
		if err := verifyCountry("papers.country", p.Country); err != nil {
			return err
		}
	}
	if p.SkipMerge && !(p.Extract && p.Filter) {
		return errors.Configuration("'papers.skipMerge' requires both 'papers.extract' and 'papers.filter'")
	}
	return nil
}

// VerifyGraph checks the options of the graph command.
func (cfg *Config) VerifyGraph() error {
	if err := cfg.Verify(); err != nil {
		return err
	}
	if cfg.Graph.ExtractWeighted != "" {
		return nil
	}
	if cfg.Graph.Input == "" {
		return errors.Configuration("'graph.input' must be set")
	}
	if cfg.Graph.Output == "" {
		return errors.Configuration("'graph.output' must be set")
	}
	_, err := partition.Parse(cfg.Graph.Intervals)
	return err
}

// VerifyStats checks the options of the stats command.
func (cfg *Config) VerifyStats() error {
	if err := cfg.Verify(); err != nil {
		return err
	}
	if cfg.Stats.Input == "" {
		return errors.Configuration("'stats.input' must be set")
	}
	if cfg.Stats.OutputDir == "" {
		return errors.Configuration("'stats.outputDir' must be set")
	}
	return nil
}

func verifyCountry(key, country string) error {
	if len(country) != 2 {
		return errors.Configuration("config '%s' must be a two letter country code, got '%s'", key, country)
	}
	return nil
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Workers: 0,
		TempDir: os.TempDir(),
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
		Trace: TraceConfig{
			Enabled: false,
			OTLP: OTLPTraceConfig{
				Endpoint: "0.0.0.0:4317",
			},
			SampleRatio: 1,
			ServiceName: "collabgraph",
		},
		Metrics: MetricConfig{
			Enabled: false,
			Addr:    "0.0.0.0:2112",
		},
		Authors: AuthorsConfig{
			Output:         DefaultAuthorsOutput,
			FilteredOutput: DefaultAuthorsFilteredOutput,
		},
		Papers: PapersConfig{
			Output:         DefaultPapersOutput,
			FilteredOutput: DefaultPapersFilteredOutput,
		},
		Graph: GraphConfig{
			Output: DefaultGraphOutput,
		},
		Stats: StatsConfig{
			OutputDir: DefaultStatsOutputDir,
		},
	}
}

// MustDefaultConfig returns the default configuration with logging silenced,
// metrics and tracing turned off. It is meant for tests.
func MustDefaultConfig() *Config {
	config := DefaultConfig()

	config.Log.Level = "none"
	config.Trace.Enabled = false
	config.Metrics.Enabled = false

	if err := config.Verify(); err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return config
}
