package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mhr3/rangesearch/internal/config"
	"github.com/mhr3/rangesearch/internal/hostvm"
	"github.com/mhr3/rangesearch/internal/logger"
	"github.com/mhr3/rangesearch/internal/metrics"
	"github.com/mhr3/rangesearch/rangesearch"
)

type options struct {
	configFile    string
	variant       string
	maxDepth      int
	computeBudget uint64
	workers       int
	inputs        string
	sweep         bool
	format        string
	logLevel      string
	metricsAddr   string
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("rangesearch", flag.ContinueOnError)
	o := &options{}
	fs.StringVar(&o.configFile, "config", "", "TOML configuration file")
	fs.StringVar(&o.variant, "variant", "", "search variant: legacy_midpoint or correct_midpoint")
	fs.IntVar(&o.maxDepth, "max-depth", 0, "host call depth limit (overrides config)")
	fs.Uint64Var(&o.computeBudget, "compute-budget", 0, "host compute budget (overrides config)")
	fs.IntVar(&o.workers, "workers", 0, "concurrent invocations for -sweep (overrides config)")
	fs.StringVar(&o.inputs, "input", "", "comma-separated input bytes, e.g. 240,241,0x07")
	fs.BoolVar(&o.sweep, "sweep", false, "invoke the entry function for every byte value")
	fs.StringVar(&o.format, "format", "text", "output format: text or json")
	fs.StringVar(&o.logLevel, "log-level", "", "log level (overrides config)")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "serve /metrics on this address and wait for a signal")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.sweep == (o.inputs != "") {
		return nil, errors.New("exactly one of -input or -sweep is required")
	}
	if o.format != "text" && o.format != "json" {
		return nil, errors.Newf("unknown format %q", o.format)
	}
	return o, nil
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(o *options) (*config.Configuration, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}
	if o.variant != "" {
		cfg.Search.Variant = o.variant
	}
	if o.maxDepth != 0 {
		cfg.Host.MaxCallDepth = o.maxDepth
	}
	if o.computeBudget != 0 {
		cfg.Host.ComputeBudget = o.computeBudget
	}
	if o.workers != 0 {
		cfg.Host.Workers = o.workers
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseInputs(s string) ([]byte, error) {
	var out []byte
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseUint(f, 0, 8)
		if err != nil {
			return nil, errors.Wrapf(err, "input %q", f)
		}
		out = append(out, byte(v))
	}
	if len(out) == 0 {
		return nil, errors.New("no input bytes")
	}
	return out, nil
}

func writeResults(w io.Writer, format string, results []hostvm.Result) error {
	if format == "json" {
		data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	for _, r := range results {
		if _, err := fmt.Fprintf(w, "input=%-3d code=%-3d status=%-16s depth=%d/%d units=%d\n",
			r.Input, r.Code, r.Status, r.Depth, r.MaxDepth, r.Units); err != nil {
			return err
		}
	}
	counts := hostvm.Tally(results)
	_, err := fmt.Fprintf(w, "found=%d absent=%d depth_exceeded=%d compute_exceeded=%d\n",
		counts[hostvm.StatusFound], counts[hostvm.StatusAbsent],
		counts[hostvm.StatusDepthExceeded], counts[hostvm.StatusComputeExceeded])
	return err
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	if err := logger.InitLogger(cfg); err != nil {
		return err
	}
	v, err := cfg.Variant()
	if err != nil {
		return err
	}

	inputs := hostvm.AllInputs()
	if !o.sweep {
		if inputs, err = parseInputs(o.inputs); err != nil {
			return err
		}
	}

	log := logger.Ctx(ctx)
	log.Info("running entry function",
		zap.String("variant", v.String()),
		zap.Int("inputs", len(inputs)),
		zap.Int("maxCallDepth", cfg.Host.MaxCallDepth),
		zap.Bool("sentinelCollides", rangesearch.SentinelCollides()))

	results, err := hostvm.Sweep(ctx, v, hostvm.LimitsFromConfig(cfg), cfg.Host.Workers, inputs)
	if err != nil {
		return err
	}
	if err := writeResults(stdout, o.format, results); err != nil {
		return err
	}

	if o.metricsAddr != "" {
		return serveMetrics(ctx, o.metricsAddr)
	}
	return nil
}

func serveMetrics(ctx context.Context, addr string) error {
	reg := prometheus.NewRegistry()
	metrics.Register(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Ctx(ctx).Info("serving metrics", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return errors.Wrap(err, "metrics server")
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "rangesearch: %v\n", err)
		os.Exit(1)
	}
}
