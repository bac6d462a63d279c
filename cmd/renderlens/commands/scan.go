package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/renderlens/renderlens/internal/chains"
	"github.com/renderlens/renderlens/internal/config"
	"github.com/renderlens/renderlens/internal/engine"
	"github.com/renderlens/renderlens/internal/lifecycle"
	"github.com/renderlens/renderlens/internal/logging"
	"github.com/renderlens/renderlens/internal/metrics"
	"github.com/renderlens/renderlens/internal/models"
	"github.com/renderlens/renderlens/internal/report"
	"github.com/renderlens/renderlens/internal/suggest"
)

// scanLineLimit caps a single NDJSON line; events are small, so anything
// beyond this is a malformed stream.
const scanLineLimit = 1024 * 1024

var (
	scanInputPath    string
	scanMetricsAddr  string
	scanReportFormat string
	scanOutputPath   string
	scanWatchConfig  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Analyze a stream of render events",
	Long: `Scan reads newline-delimited JSON render events from a file or stdin,
feeds them through the analysis engine and writes a session report when the
stream ends.`,
	Run: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanInputPath, "input", "-",
		"Path to the NDJSON event stream, or '-' for stdin")
	scanCmd.Flags().StringVar(&scanMetricsAddr, "metrics-addr", "",
		"Listen address for the Prometheus endpoint (overrides config; empty disables)")
	scanCmd.Flags().StringVar(&scanReportFormat, "report-format", "text",
		"Report output format (text, json, yaml)")
	scanCmd.Flags().StringVar(&scanOutputPath, "output", "-",
		"Path to write the report to, or '-' for stdout")
	scanCmd.Flags().BoolVar(&scanWatchConfig, "watch-config", false,
		"Reload thresholds and rule overrides when the config file changes")
}

func runScan(cmd *cobra.Command, args []string) {
	HandleError(setupLog(logLevel), "Failed to setup logging")
	logger := logging.GetLogger("scan")

	cfg, err := config.Load(configPath)
	HandleError(err, "Configuration error")
	if scanMetricsAddr != "" {
		cfg.MetricsAddr = scanMetricsAddr
	}

	format, err := report.ParseFormat(scanReportFormat)
	HandleError(err, "Report format error")

	logger.Info("Starting RenderLens v%s", Version)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	eng := engine.New(cfg.EngineConfig(), m)
	HandleError(applyRuleOverrides(eng, cfg), "Rule override error")

	// Chains are ephemeral in the engine; the report needs the full list,
	// so collect them from notifications as they are detected.
	var chainMu sync.Mutex
	var detected []chains.RenderChain
	unsubscribe := eng.Subscribe(func(n engine.Notification) {
		if n.Type == engine.NotificationChainDetected && n.Chain != nil {
			chainMu.Lock()
			detected = append(detected, *n.Chain)
			chainMu.Unlock()
		}
	})
	defer unsubscribe()

	manager := lifecycle.NewManager()

	engineComponent := &lifecycle.FuncComponent{
		ComponentName: "engine",
		StartFunc: func(ctx context.Context) error {
			eng.Start()
			return nil
		},
		StopFunc: func(ctx context.Context) error {
			eng.Stop()
			return nil
		},
	}
	HandleError(manager.Register(engineComponent), "Engine registration error")

	if cfg.MetricsAddr != "" {
		HandleError(manager.Register(metricsComponent(cfg.MetricsAddr, registry), engineComponent),
			"Metrics server registration error")
	}

	if scanWatchConfig {
		if configPath == "" {
			HandleError(fmt.Errorf("--watch-config requires --config"), "Configuration error")
		}
		watcher, err := config.NewWatcher(config.WatcherConfig{FilePath: configPath},
			func(next *config.Config) error {
				eng.SetThresholds(next.Thresholds)
				return applyRuleOverrides(eng, next)
			})
		HandleError(err, "Config watcher error")

		watcherComponent := &lifecycle.FuncComponent{
			ComponentName: "config-watcher",
			StartFunc:     watcher.Start,
			StopFunc: func(ctx context.Context) error {
				return watcher.Stop()
			},
		}
		HandleError(manager.Register(watcherComponent, engineComponent), "Config watcher registration error")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	HandleError(manager.Start(ctx), "Startup error")
	logger.Info("Session %s started", eng.SessionID())

	input, closeInput, err := openInput(scanInputPath)
	HandleError(err, "Input error")

	g, feedCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer closeInput()
		return feedEvents(feedCtx, eng, input, logger)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Event feed failed: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := manager.Stop(shutdownCtx); err != nil {
		logger.Error("Error during shutdown: %v", err)
	}

	chainMu.Lock()
	sessionChains := append([]chains.RenderChain(nil), detected...)
	chainMu.Unlock()

	rep := report.Build(eng.SessionID(), eng.Thresholds(), eng.Summary(),
		eng.Snapshot(), sessionChains, flattenSuggestions(eng))
	HandleError(writeReport(rep, format, scanOutputPath), "Report error")

	logger.Info("Session complete: %d components, %d chains, %d suggestions",
		rep.Summary.TotalComponents, len(rep.Chains), len(rep.Suggestions))
}

// applyRuleOverrides pushes the config file's rule overrides into the engine
func applyRuleOverrides(eng *engine.Engine, cfg *config.Config) error {
	for _, r := range cfg.Rules {
		override, ok := suggest.ParseOverride(r.Override)
		if !ok {
			return fmt.Errorf("invalid override %q for rule %s", r.Override, r.ID)
		}
		if err := eng.SetRuleOverride(r.ID, override); err != nil {
			return err
		}
	}
	return nil
}

// metricsComponent wraps a Prometheus HTTP endpoint as a lifecycle component
func metricsComponent(addr string, registry *prometheus.Registry) lifecycle.Component {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}
	logger := logging.GetLogger("metrics-server")

	return &lifecycle.FuncComponent{
		ComponentName: "metrics-server",
		StartFunc: func(ctx context.Context) error {
			go func() {
				logger.Info("serving metrics on %s", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("metrics server failed: %v", err)
				}
			}()
			return nil
		},
		StopFunc: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	}
}

// openInput opens the event stream, treating "-" as stdin
func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input %q: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}

// feedEvents reads NDJSON events line by line and forwards valid ones to the
// engine. Malformed or invalid lines are logged and skipped; the stream
// keeps flowing.
func feedEvents(ctx context.Context, eng *engine.Engine, r io.Reader, logger *logging.Logger) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), scanLineLimit)

	lineNo := 0
	accepted := 0
	skipped := 0
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event models.RenderEvent
		if err := json.Unmarshal(line, &event); err != nil {
			logger.Warn("line %d: malformed event, skipping: %v", lineNo, err)
			skipped++
			continue
		}
		if err := event.Validate(); err != nil {
			logger.Warn("line %d: invalid event, skipping: %v", lineNo, err)
			skipped++
			continue
		}

		eng.AddRender(event)
		accepted++
	}

	logger.Info("event stream finished: %d accepted, %d skipped", accepted, skipped)
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read event stream: %w", err)
	}
	return ctx.Err()
}

// flattenSuggestions collects every cached suggestion in snapshot order so
// report output is deterministic.
func flattenSuggestions(eng *engine.Engine) []suggest.FixSuggestion {
	all := eng.AllSuggestions()
	var flat []suggest.FixSuggestion
	for _, stats := range eng.Snapshot() {
		flat = append(flat, all[stats.Name]...)
	}
	return flat
}

// writeReport writes the report to the output path, treating "-" as stdout
func writeReport(rep *report.Report, format report.Format, path string) error {
	if path == "-" {
		return rep.Write(os.Stdout, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output %q: %w", path, err)
	}
	defer f.Close()
	return rep.Write(f, format)
}
