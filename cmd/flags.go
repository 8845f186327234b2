package cmd

import (
	"github.com/spf13/cobra"

	"github.com/collabgraph/collabgraph/cmd/util"
	"github.com/collabgraph/collabgraph/internal/config"
)

// bindRootFlags binds the flags shared by every command to the equivalent config value being
// managed by viper. They are persistent so a single binding serves all children commands.
func bindRootFlags(command *cobra.Command) {
	defaultConfig := config.DefaultConfig()
	flags := command.PersistentFlags()

	flags.Int("workers", defaultConfig.Workers, "the number of workers of a run (0 selects the number of CPUs)")
	util.MustBindPFlag("workers", flags.Lookup("workers"))
	util.MustBindEnv("workers", "COLLABGRAPH_WORKERS", config.WorkersEnv)

	flags.String("temp-dir", defaultConfig.TempDir, "the directory receiving the part files of the workers")
	util.MustBindPFlag("tempDir", flags.Lookup("temp-dir"))
	util.MustBindEnv("tempDir", "COLLABGRAPH_TEMP_DIR", "COLLABGRAPH_TEMPDIR")

	flags.String("log-format", defaultConfig.Log.Format, "the log format to output logs in ('text' or 'json')")
	util.MustBindPFlag("log.format", flags.Lookup("log-format"))
	util.MustBindEnv("log.format", "COLLABGRAPH_LOG_FORMAT")

	flags.String("log-level", defaultConfig.Log.Level, "the log level to use ('none', 'debug', 'info', 'warn', 'error', 'panic', 'fatal')")
	util.MustBindPFlag("log.level", flags.Lookup("log-level"))
	util.MustBindEnv("log.level", "COLLABGRAPH_LOG_LEVEL")

	flags.Bool("trace-enabled", defaultConfig.Trace.Enabled, "enable tracing")
	util.MustBindPFlag("trace.enabled", flags.Lookup("trace-enabled"))
	util.MustBindEnv("trace.enabled", "COLLABGRAPH_TRACE_ENABLED")

	flags.String("trace-otlp-endpoint", defaultConfig.Trace.OTLP.Endpoint, "the endpoint of the trace collector")
	util.MustBindPFlag("trace.otlp.endpoint", flags.Lookup("trace-otlp-endpoint"))
	util.MustBindEnv("trace.otlp.endpoint", "COLLABGRAPH_TRACE_OTLP_ENDPOINT")

	flags.Float64("trace-sample-ratio", defaultConfig.Trace.SampleRatio, "the fraction of traces to sample. 1 means all, 0 means none")
	util.MustBindPFlag("trace.sampleRatio", flags.Lookup("trace-sample-ratio"))
	util.MustBindEnv("trace.sampleRatio", "COLLABGRAPH_TRACE_SAMPLE_RATIO", "COLLABGRAPH_TRACE_SAMPLERATIO")

	flags.String("trace-service-name", defaultConfig.Trace.ServiceName, "the service name included in sampled traces")
	util.MustBindPFlag("trace.serviceName", flags.Lookup("trace-service-name"))
	util.MustBindEnv("trace.serviceName", "COLLABGRAPH_TRACE_SERVICE_NAME", "COLLABGRAPH_TRACE_SERVICENAME")

	flags.Duration("trace-slow-run-threshold", defaultConfig.Trace.SlowRunThreshold, "only export the traces of stages running at least this long (0 exports all)")
	util.MustBindPFlag("trace.slowRunThreshold", flags.Lookup("trace-slow-run-threshold"))
	util.MustBindEnv("trace.slowRunThreshold", "COLLABGRAPH_TRACE_SLOW_RUN_THRESHOLD")

	flags.Bool("metrics-enabled", defaultConfig.Metrics.Enabled, "enable/disable prometheus metrics on the '/metrics' endpoint during a run")
	util.MustBindPFlag("metrics.enabled", flags.Lookup("metrics-enabled"))
	util.MustBindEnv("metrics.enabled", "COLLABGRAPH_METRICS_ENABLED")

	flags.String("metrics-addr", defaultConfig.Metrics.Addr, "the host:port address to serve the prometheus metrics server on")
	util.MustBindPFlag("metrics.addr", flags.Lookup("metrics-addr"))
	util.MustBindEnv("metrics.addr", "COLLABGRAPH_METRICS_ADDR")
}
