// Package util provides common utilities for spf13/cobra CLI utilities
// that can be used for various commands within this project.
package util

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/collabgraph/collabgraph/internal/config"
	"github.com/collabgraph/collabgraph/internal/metrics"
	"github.com/collabgraph/collabgraph/internal/pipeline"
	"github.com/collabgraph/collabgraph/pkg/logger"
	"github.com/collabgraph/collabgraph/pkg/telemetry"
)

const shutdownTimeout = 5 * time.Second

// MustBindPFlag attempts to bind a specific key to a pflag (as used by cobra) and panics
// if the binding fails with a non-nil error.
func MustBindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic("failed to bind pflag: " + err.Error())
	}
}

func MustBindEnv(input ...string) {
	if err := viper.BindEnv(input...); err != nil {
		panic("failed to bind env key: " + err.Error())
	}
}

// ReadConfig returns the configuration resolved from the defaults, config.yaml, the
// environment and the flags bound to viper.
func ReadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()

	viper.SetTypeByDefaultValue(true)
	err := viper.ReadInConfig()
	if err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Job is the body of a command.
type Job func(ctx context.Context, r *pipeline.Runner) error

// Run reads and verifies the configuration, sets up logging, tracing and the
// metrics endpoint as configured, then runs job. The job's context is cancelled
// on SIGINT or SIGTERM.
func Run(cmd *cobra.Command, verify func(*config.Config) error, job Job) error {
	cfg, err := ReadConfig()
	if err != nil {
		return err
	}
	if err := verify(cfg); err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := pipeline.New(cfg, pipeline.WithLogger(log))

	closeTracing, err := tracing(cfg, runner.RunID())
	if err != nil {
		return err
	}
	defer func() {
		if err := closeTracing(); err != nil {
			log.Warn("failed to flush traces", zap.Error(err))
		}
	}()

	if cfg.Metrics.Enabled {
		srv := metrics.Serve(cfg.Metrics.Addr, log)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Info("failed to shutdown the prometheus metrics server", zap.Error(err))
			}
		}()
	}

	start := time.Now()
	log.Info("run started",
		zap.String("command", cmd.Name()),
		zap.String("run_id", runner.RunID()),
		zap.Int("workers", cfg.Workers),
	)
	if err := job(ctx, runner); err != nil {
		log.Error("run failed", zap.String("command", cmd.Name()), zap.Error(err))
		return err
	}
	log.Info("run finished", zap.String("command", cmd.Name()), zap.Duration("took", time.Since(start)))
	return nil
}

// tracing installs the global tracer provider and returns the function that must be called
// to flush and shut it down.
func tracing(cfg *config.Config, runID string) (func() error, error) {
	var tp telemetry.TracerProvider = telemetry.Noop()
	if cfg.Trace.Enabled {
		var err error
		tp, err = telemetry.NewTracerProvider(
			telemetry.WithOTLPEndpoint(cfg.Trace.OTLP.Endpoint),
			telemetry.WithServiceName(cfg.Trace.ServiceName),
			telemetry.WithSamplingRatio(cfg.Trace.SampleRatio),
			telemetry.WithSlowRunThreshold(cfg.Trace.SlowRunThreshold),
			telemetry.WithAttributes(attribute.String("run.id", runID)),
		)
		if err != nil {
			return nil, err
		}
	} else {
		otel.SetTracerProvider(tp)
	}

	return func() error {
		// Flushing the batch processor can take up to its export timeout.
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return tp.Close(ctx)
	}, nil
}

func PrepareTempConfigDir(t *testing.T) string {
	_, err := os.Stat("/etc/collabgraph/config.yaml")
	require.ErrorIs(t, err, os.ErrNotExist, "Config file at /etc/collabgraph/config.yaml would disturb test result.")

	homedir := t.TempDir()
	t.Setenv("HOME", homedir)

	confdir := filepath.Join(homedir, ".collabgraph")
	require.NoError(t, os.Mkdir(confdir, 0750))

	return confdir
}

func PrepareTempConfigFile(t *testing.T, config string) {
	confdir := PrepareTempConfigDir(t)
	confFile, err := os.Create(filepath.Join(confdir, "config.yaml"))
	require.NoError(t, err)
	_, err = confFile.WriteString(config)
	require.NoError(t, err)
	require.NoError(t, confFile.Close())
}
