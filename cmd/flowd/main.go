package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nomis52/goflow/buildinfo"
	"github.com/nomis52/goflow/config"
	"github.com/nomis52/goflow/engine"
	"github.com/nomis52/goflow/history"
	"github.com/nomis52/goflow/logging"
	"github.com/nomis52/goflow/metrics"
	"github.com/nomis52/goflow/resource"
	"github.com/nomis52/goflow/store"
	"github.com/nomis52/goflow/trigger"
)

type Args struct {
	ConfigPath string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	args := parseArgs()

	if args.ConfigPath == "" {
		return fmt.Errorf("config flag (-c or --config) is required")
	}

	cfg, err := config.Load(args.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	workflowStore, err := store.NewDiskStore(cfg.Store.WorkflowDir, logger.Logger)
	if err != nil {
		return fmt.Errorf("failed to create workflow store: %w", err)
	}

	runHistory, err := history.NewDiskStore(cfg.Store.HistoryDir, cfg.Store.MaxHistory, logger.Logger)
	if err != nil {
		return fmt.Errorf("failed to create run history: %w", err)
	}

	opts := []engine.Option{
		engine.WithLogger(logger.Logger),
		engine.WithConcurrency(cfg.Engine.Concurrency),
		engine.WithRetryDelay(cfg.Engine.RetryDelay),
		engine.WithStore(workflowStore),
		engine.WithHistory(runHistory),
		engine.WithSampler(resource.NewSystemSampler()),
	}

	var reg metrics.Registry
	var metricsSrv *http.Server
	switch {
	case cfg.Monitoring.PushURL != "":
		reg = metrics.NewPushRegistry(metrics.PushConfig{
			URL:    cfg.Monitoring.PushURL,
			Prefix: cfg.Monitoring.MetricsPrefix,
			Job:    cfg.Monitoring.JobName,
		})
	case cfg.Monitoring.ListenAddr != "":
		scrapeReg, err := metrics.NewScrapeRegistry()
		if err != nil {
			return fmt.Errorf("failed to create scrape registry: %w", err)
		}
		reg = scrapeReg

		mux := http.NewServeMux()
		mux.Handle("/metrics", scrapeReg.Handler())
		metricsSrv = &http.Server{Addr: cfg.Monitoring.ListenAddr, Handler: mux}
	}

	var exporter *metrics.ProfileExporter
	if reg != nil {
		opts = append(opts, engine.WithMetrics(reg))

		exporter, err = metrics.NewProfileExporter(reg, logger.Logger)
		if err != nil {
			return fmt.Errorf("failed to create profile exporter: %w", err)
		}
	}

	orc, err := engine.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	if err := orc.Restore(); err != nil {
		return fmt.Errorf("failed to restore workflows: %w", err)
	}

	mgr, err := trigger.NewManager(orc.Workflows(), orc, logger.Logger)
	if err != nil {
		return fmt.Errorf("failed to create trigger manager: %w", err)
	}

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	if exporter != nil {
		go watchProfiles(ctx, orc, exporter)
	}

	if metricsSrv != nil {
		go func() {
			logger.Info("metrics endpoint listening", "addr", metricsSrv.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	mgr.Start(ctx)

	build := buildinfo.Get()
	logger.Info("goflow started",
		"workflows", len(orc.Workflows()),
		"triggers", mgr.Count(),
		"build_time", build.BuildTime,
		"git_commit", build.GitCommit,
	)

	<-ctx.Done()
	return nil
}

// watchProfiles publishes the updated workflow performance profile after
// every finished run until ctx is cancelled.
func watchProfiles(ctx context.Context, orc *engine.Orchestrator, exporter *metrics.ProfileExporter) {
	events, cancel := orc.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if e.Kind != engine.EventRunFinished {
				continue
			}
			if profile, exists := orc.Profile(e.WorkflowID); exists {
				exporter.Export(profile)
			}
		}
	}
}

func parseArgs() Args {
	configPath := flag.String("config", "", "Path to config file")
	configPathShort := flag.String("c", "", "Path to config file (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nGoflow - Workflow Orchestration Daemon\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --config /etc/goflow/config.yaml\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -c config.yaml\n", os.Args[0])
	}

	flag.Parse()

	path := *configPath
	if path == "" && *configPathShort != "" {
		path = *configPathShort
	}

	return Args{ConfigPath: path}
}
