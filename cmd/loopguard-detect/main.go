package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"loopguard/internal/core/version"
	"loopguard/internal/modkit"
	"loopguard/internal/modkit/module"
	"loopguard/internal/platform/config"
	perr "loopguard/internal/platform/errors"
	"loopguard/internal/platform/logger"
	"loopguard/internal/platform/metrics"

	scandom "loopguard/internal/services/scan/domain"
	scanmod "loopguard/internal/services/scan/module"
	scanrepo "loopguard/internal/services/scan/repo"
)

const service = "loopguard-detect"

// flags mirrored into LOOPGUARD_SCAN_* so the module reads its own config
var flagEnv = map[string]string{
	"workers":   "LOOPGUARD_SCAN_WORKERS",
	"page":      "LOOPGUARD_SCAN_PAGE_SIZE",
	"dry-run":   "LOOPGUARD_SCAN_DRY_RUN",
	"normalize": "LOOPGUARD_SCAN_NORMALIZE",
	"skip-code": "LOOPGUARD_SCAN_SKIP_CODE",
	"max-runes": "LOOPGUARD_SCAN_MAX_SCAN_RUNES",
}

func mustSetEnv(k, v string) {
	if v != "" {
		_ = os.Setenv(k, v)
	}
}

func main() { os.Exit(run()) }

func run() int {
	var (
		inPath      = flag.String("in", "", "input file (default stdin)")
		format      = flag.String("format", "text", "input format: text (one record per line) | jsonl")
		outFormat   = flag.String("out", "text", "output format: text | jsonl")
		_           = flag.Int("workers", 2, "concurrency (>=1)")
		_           = flag.Int("page", 256, "records per page")
		_           = flag.Bool("normalize", false, "normalize text before scanning")
		_           = flag.Bool("skip-code", false, "ignore loops inside code fences and inline code")
		_           = flag.Int("max-runes", 0, "scan only the trailing N runes of each record (0 = all)")
		_           = flag.Bool("dry-run", false, "scan and count but write no outcomes")
		onlyFlagged = flag.Bool("only-flagged", false, "write flagged records only")
		truncate    = flag.Bool("truncate", false, "include text cut after the first unit of the loop")
		stream      = flag.Bool("stream", false, "treat input as one stream and stop at the first loop")
		metricsOut  = flag.String("metrics-out", "", "write prometheus textfile metrics here")
		envFile     = flag.String("env", "", "dotenv file to load (default .env when present)")
		showVer     = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVer {
		fmt.Println(version.Info(service))
		return 0
	}

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	if err := config.LoadDotEnv(envFiles...); err != nil {
		fmt.Fprintln(os.Stderr, "load env:", err)
		return 2
	}
	l := logger.Named(service)

	flag.Visit(func(f *flag.Flag) {
		if key, ok := flagEnv[f.Name]; ok {
			mustSetEnv(key, f.Value.String())
		}
	})

	in, closeIn, err := openInput(*inPath)
	if err != nil {
		l.Error().Err(err).Msg("open input")
		return perr.ExitCode(err)
	}
	defer closeIn()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := metrics.New()
	defer func() {
		if err := rec.WriteTextfile(*metricsOut); err != nil {
			l.Error().Err(err).Msg("write metrics")
		}
	}()

	deps := modkit.Deps{Cfg: config.New(), Log: *l, Metrics: rec}

	wopts := scanrepo.WriterOptions{FlaggedOnly: *onlyFlagged, Truncate: *truncate}
	var w scandom.WriterPort
	switch *outFormat {
	case "text":
		w = scanrepo.NewTextWriter(os.Stdout, wopts)
	case "jsonl":
		w = scanrepo.NewJSONLWriter(os.Stdout, wopts)
	default:
		l.Error().Str("out", *outFormat).Msg("unknown output format")
		return 2
	}

	if *stream {
		return watch(ctx, deps, in, w)
	}

	var r scandom.ReaderPort
	switch *format {
	case "text":
		r = scanrepo.NewLineReader(in)
	case "jsonl":
		r = scanrepo.NewJSONLReader(in)
	default:
		l.Error().Str("format", *format).Msg("unknown input format")
		return 2
	}

	m, err := scanmod.New(deps, scanmod.Options{}, modkit.WithPorts(scandom.Ports{Reader: r, Writer: w}))
	if err != nil {
		l.Error().Err(err).Msg("scan module")
		return perr.ExitCode(err)
	}
	module.RegisterModule(m)

	runner, ok := module.PortsAs[scandom.RunnerPort](scanmod.Name)
	if !ok {
		l.Error().Strs("modules", module.Names()).Msg("scan runner not registered")
		return 2
	}
	sum, err := runner.Run(ctx)
	if err != nil {
		l.Error().Err(err).Msg("scan failed")
		return perr.ExitCode(err)
	}
	l.Info().Str("run_id", sum.Run).Int("scanned", sum.Scanned).Int("flagged", sum.Flagged).
		Interface("by_rule", sum.ByRule).Msg("done")
	if sum.Flagged > 0 {
		return 1
	}
	return 0
}

func watch(ctx context.Context, deps modkit.Deps, in io.Reader, w scandom.WriterPort) int {
	m, err := scanmod.New(deps, scanmod.Options{})
	if err != nil {
		deps.Log.Error().Err(err).Msg("scan module")
		return perr.ExitCode(err)
	}
	module.RegisterModule(m)

	stream, ok := module.PortsAs[scandom.StreamPort](scanmod.Name)
	if !ok {
		deps.Log.Error().Strs("modules", module.Names()).Msg("scan stream not registered")
		return 2
	}
	o, err := stream.Watch(ctx, in)
	if err != nil {
		deps.Log.Error().Err(err).Msg("watch failed")
		return perr.ExitCode(err)
	}
	if err := w.Write(ctx, o); err != nil {
		deps.Log.Error().Err(err).Msg("write outcome")
		return perr.ExitCode(err)
	}
	if err := w.Flush(); err != nil {
		deps.Log.Error().Err(err).Msg("flush")
		return perr.ExitCode(err)
	}
	if o.Flagged() {
		return 1
	}
	return 0
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		code := perr.ErrorCodeIO
		if os.IsNotExist(err) {
			code = perr.ErrorCodeNotFound
		}
		return nil, nil, perr.Wrapf(err, code, "open %s", path)
	}
	return f, func() { _ = f.Close() }, nil
}
