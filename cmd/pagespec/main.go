package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/pagespec/internal/bootstrap"
	"github.com/GriffinCanCode/pagespec/internal/config"
	"github.com/GriffinCanCode/pagespec/internal/fixture"
	"github.com/GriffinCanCode/pagespec/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/pagespec/internal/logging"
	"github.com/GriffinCanCode/pagespec/internal/sandbox"
	"github.com/GriffinCanCode/pagespec/internal/watch"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type cliFlags struct {
	scripts     stringList
	fixture     string
	markup      string
	eval        string
	xpath       string
	json        bool
	watch       bool
	metricsAddr string
	timeout     time.Duration
	dev         bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg := config.LoadOrDefault()

	var f cliFlags
	fs := flag.NewFlagSet("pagespec", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Var(&f.scripts, "script", "Script path or glob to load, repeatable")
	fs.StringVar(&f.fixture, "fixture", "", "YAML or TOML fixture describing markup and scripts")
	fs.StringVar(&f.markup, "markup", cfg.Sandbox.Markup, "Markup for the document shell")
	fs.StringVar(&f.eval, "eval", "", "Expression to evaluate once the page is loaded")
	fs.StringVar(&f.xpath, "xpath", "", "XPath expression to select from the loaded document")
	fs.BoolVar(&f.json, "json", false, "Print the report as JSON")
	fs.BoolVar(&f.watch, "watch", false, "Reload whenever a script changes")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address in watch mode")
	fs.DurationVar(&f.timeout, "timeout", cfg.Sandbox.Timeout, "Per-script evaluation timeout")
	fs.BoolVar(&f.dev, "dev", cfg.Logging.Development, "Development logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	f.scripts = append(f.scripts, fs.Args()...)

	markupSet := false
	fs.Visit(func(fl *flag.Flag) {
		if fl.Name == "markup" {
			markupSet = true
		}
	})

	cfg.Logging.Development = f.dev
	logger := logging.FromConfig(cfg.Logging)
	defer logger.Sync()

	sandboxCfg := cfg.Sandbox.SandboxConfig()
	sandboxCfg.Timeout = f.timeout

	opts, err := buildOptions(f, sandboxCfg, markupSet)
	if err != nil {
		fmt.Fprintf(stderr, "pagespec: %v\n", err)
		return 2
	}

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	boot := bootstrap.New(opts,
		bootstrap.WithLogger(logger.Logger),
		bootstrap.WithMetrics(metrics),
	)

	printer := &reporter{stdout: stdout, json: f.json, eval: f.eval, xpath: f.xpath, boot: boot}

	if !f.watch {
		env, err := boot.Run(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "pagespec: %v\n", err)
			return 1
		}
		if err := printer.print(ctx, env); err != nil {
			fmt.Fprintf(stderr, "pagespec: %v\n", err)
			return 1
		}
		return 0
	}

	return runWatch(ctx, boot, printer, reg, f.metricsAddr, cfg.Watch.Debounce, logger.Logger, stderr)
}

func buildOptions(f cliFlags, sandboxCfg sandbox.Config, markupSet bool) (bootstrap.Options, error) {
	var opts bootstrap.Options
	if f.fixture != "" {
		fx, err := fixture.Load(f.fixture)
		if err != nil {
			return opts, err
		}
		if opts, err = fx.Options(sandboxCfg); err != nil {
			return opts, err
		}
	} else {
		opts.Sandbox = sandboxCfg
		opts.Markup = f.markup
	}

	if markupSet {
		opts.Markup = f.markup
	}

	extra, err := bootstrap.ExpandScripts("", f.scripts)
	if err != nil {
		return opts, err
	}
	opts.Scripts = append(opts.Scripts, extra...)

	if len(opts.Scripts) == 0 {
		return opts, errors.New("no scripts given; use -script, -fixture or positional paths")
	}
	return opts, nil
}

func runWatch(
	ctx context.Context,
	boot *bootstrap.Bootstrapper,
	printer *reporter,
	reg *prometheus.Registry,
	metricsAddr string,
	debounce time.Duration,
	logger *zap.Logger,
	stderr io.Writer,
) int {
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		logger.Info("Serving metrics", zap.String("addr", metricsAddr))
	}

	w, err := watch.New(boot, watch.Config{
		Debounce: debounce,
		Logger:   logger,
		OnReload: func(env *sandbox.Environment) {
			if err := printer.print(ctx, env); err != nil {
				fmt.Fprintf(stderr, "pagespec: %v\n", err)
			}
		},
		OnError: func(err error) {
			fmt.Fprintf(stderr, "pagespec: %v\n", err)
		},
	})
	if err != nil {
		fmt.Fprintf(stderr, "pagespec: %v\n", err)
		return 1
	}
	defer w.Close()

	if env, err := w.Reload(ctx); err != nil {
		fmt.Fprintf(stderr, "pagespec: %v\n", err)
	} else if err := printer.print(ctx, env); err != nil {
		fmt.Fprintf(stderr, "pagespec: %v\n", err)
	}

	<-ctx.Done()
	return 0
}
