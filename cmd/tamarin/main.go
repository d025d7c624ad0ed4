// Command tamarin runs the sample dataset applications: line counting,
// job title counting and the bus timetable lookup.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/paveg/tamarin"
	"github.com/paveg/tamarin/internal/monitoring"
	"github.com/paveg/tamarin/internal/validation"
	"github.com/paveg/tamarin/internal/version"
)

const shutdownTimeout = 5 * time.Second

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// globalFlags are shared by every command.
type globalFlags struct {
	logLevel    string
	configFile  string
	metricsAddr string
	partitions  int

	s3Region    string
	s3Endpoint  string
	s3PathStyle bool
}

// env is what a command needs to run a pipeline.
type env struct {
	engine *tamarin.Engine
	store  tamarin.Store
	logger log.Logger
}

func main() {
	app := kingpin.New("tamarin", "Partitioned dataset transformation engine.")
	app.Version(version.Info().String())
	app.HelpFlag.Short('h')

	var flags globalFlags
	app.Flag("log.level", "Only log messages with the given severity or above. One of: [debug, info, warn, error]").
		Default("info").EnumVar(&flags.logLevel, "debug", "info", "warn", "error")
	app.Flag("config.file", "Engine configuration file (json or yaml).").StringVar(&flags.configFile)
	app.Flag("metrics.addr", "Serve /metrics, /summary and /health on this address while running.").StringVar(&flags.metricsAddr)
	app.Flag("partitions", "Minimum partitions per input file (0 = config default).").Default("0").IntVar(&flags.partitions)
	app.Flag("s3.region", "AWS region for s3:// inputs.").StringVar(&flags.s3Region)
	app.Flag("s3.endpoint", "Custom S3 endpoint, e.g. MinIO.").StringVar(&flags.s3Endpoint)
	app.Flag("s3.path-style", "Use path-style S3 addressing.").BoolVar(&flags.s3PathStyle)

	addLineCountCommand(app, &flags)
	addCargosCommand(app, &flags)
	addOnibusCommand(app, &flags)
	addVersionCommand(app)

	if _, err := app.Parse(os.Args[1:]); err != nil {
		exitWithErr(err)
	}
}

func exitWithErr(err error) {
	color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// newLogger builds a logfmt logger on w that drops messages below lvl.
// verbose lowers the threshold to debug whatever lvl says.
func newLogger(w io.Writer, lvl string, verbose bool) log.Logger {
	var opt level.Option
	switch {
	case verbose || lvl == "debug":
		opt = level.AllowDebug()
	case lvl == "warn":
		opt = level.AllowWarn()
	case lvl == "error":
		opt = level.AllowError()
	default:
		opt = level.AllowInfo()
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = level.NewFilter(logger, opt)
	return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}

// run sets up the engine, the stores and the optional monitoring server,
// then calls fn. It is the body of every pipeline command.
func run(flags *globalFlags, fn func(ctx context.Context, rt env) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, flags.logLevel, cfg.VerboseLogging)

	opts := []tamarin.Option{tamarin.WithLogger(log.With(logger, "component", "engine"))}
	if flags.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		collector := monitoring.NewMetricsCollector(true)
		opts = append(opts, tamarin.WithMetrics(monitoring.NewMetrics(reg)), tamarin.WithCollector(collector))

		srv := monitoring.NewMonitoringServer(collector, reg, flags.metricsAddr)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				level.Error(logger).Log("msg", "monitoring server failed", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Stop(shutdownCtx)
		}()
		level.Info(logger).Log("msg", "serving metrics", "addr", flags.metricsAddr)
	}

	store, err := newStore(ctx, flags)
	if err != nil {
		return err
	}

	return tamarin.WithEngine(cfg, func(e *tamarin.Engine) error {
		return fn(ctx, env{engine: e, store: store, logger: logger})
	}, opts...)
}

// loadConfig reads --config.file when given and applies TAMARIN_*
// environment overrides in either case.
func loadConfig(flags *globalFlags) (tamarin.Config, error) {
	if err := validation.ValidateNonNegative(int64(flags.partitions), "tamarin", "--partitions"); err != nil {
		return tamarin.Config{}, err
	}
	if flags.configFile == "" {
		return tamarin.ConfigFromEnv(), nil
	}
	return tamarin.LoadConfig(flags.configFile)
}

// newStore opens local paths directly and s3:// paths through an S3 client
// that is only created when an S3 option is set or AWS_REGION is present.
func newStore(ctx context.Context, flags *globalFlags) (tamarin.Store, error) {
	local := tamarin.LocalStore()
	if flags.s3Region == "" && flags.s3Endpoint == "" && os.Getenv("AWS_REGION") == "" {
		return tamarin.NewRouter(local, nil), nil
	}
	remote, err := tamarin.NewS3Store(ctx, tamarin.S3Config{
		Region:       flags.s3Region,
		Endpoint:     flags.s3Endpoint,
		UsePathStyle: flags.s3PathStyle,
	})
	if err != nil {
		return nil, err
	}
	return tamarin.NewRouter(local, remote), nil
}

func addVersionCommand(app *kingpin.Application) {
	cmd := app.Command("version", "Print build information.")
	asJSON := cmd.Flag("json", "Print as JSON.").Bool()
	cmd.Action(func(_ *kingpin.ParseContext) error {
		info := version.Info()
		if !*asJSON {
			fmt.Print(info.String())
			return nil
		}
		out, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	})
}
