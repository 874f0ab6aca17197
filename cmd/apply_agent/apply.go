package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/apply-agent/internal/answers"
	"github.com/jonathan/apply-agent/internal/attach"
	"github.com/jonathan/apply-agent/internal/config"
	"github.com/jonathan/apply-agent/internal/driver"
	"github.com/jonathan/apply-agent/internal/engine"
	"github.com/jonathan/apply-agent/internal/forms"
	"github.com/jonathan/apply-agent/internal/history"
	"github.com/jonathan/apply-agent/internal/jobpage"
	"github.com/jonathan/apply-agent/internal/llm"
	"github.com/jonathan/apply-agent/internal/logging"
	"github.com/jonathan/apply-agent/internal/metrics"
	"github.com/jonathan/apply-agent/internal/navigator"
	"github.com/jonathan/apply-agent/internal/observability"
	"github.com/jonathan/apply-agent/internal/oracle"
	"github.com/jonathan/apply-agent/internal/rendering"
	"github.com/jonathan/apply-agent/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var applyCommand = &cobra.Command{
	Use:   "apply",
	Short: "Apply to every job in a jobs file",
	Long: `Opens each job in Chrome and walks its application form: entry -> fill step -> advance, until the form is submitted.

Jobs are read from a JSON or YAML list of {link, title, company, description}. Configuration can be loaded from a JSON or YAML file using --config. Command-line arguments override config file values.`,
	RunE: runApplyCmd,
}

var (
	applyConfigPath  string
	applyJobsPath    string
	applyAPIKey      string
	applyHeadless    bool
	applyMetricsAddr string
	applyLogLevel    string
	applyVerbose     bool
)

func init() {
	applyCommand.Flags().StringVar(&applyConfigPath, "config", "", "Path to config file (values can be overridden by other flags)")
	applyCommand.Flags().StringVarP(&applyJobsPath, "jobs", "j", "", "Path to JSON or YAML jobs file")
	applyCommand.Flags().StringVar(&applyAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	applyCommand.Flags().BoolVar(&applyHeadless, "headless", false, "Run Chrome without a window")
	applyCommand.Flags().StringVar(&applyMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while applying")
	applyCommand.Flags().StringVar(&applyLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	applyCommand.Flags().BoolVarP(&applyVerbose, "verbose", "v", false, "Print each form step and attempt as it happens")

	_ = applyCommand.MarkFlagRequired("jobs")

	rootCmd.AddCommand(applyCommand)
}

func runApplyCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(applyConfigPath)
	if err != nil {
		return err
	}

	// CLI overrides (command-line args take priority)
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = applyAPIKey
	}
	if cmd.Flags().Changed("headless") {
		cfg.Headless = applyHeadless
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.MetricsAddr = applyMetricsAddr
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = applyLogLevel
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("API key is required (use --api-key or set GEMINI_API_KEY)")
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	jobs, err := loadJobs(applyJobsPath)
	if err != nil {
		return err
	}

	profile := ""
	if cfg.Profile != "" {
		data, err := os.ReadFile(cfg.Profile)
		if err != nil {
			return fmt.Errorf("failed to read profile: %w", err)
		}
		profile = string(data)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	store, closeStore, err := openAnswerStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	recorder, closeRecorder, err := openRecorder(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRecorder()

	browser, err := driver.NewChrome(ctx, driver.ChromeOptions{
		Headless:    cfg.Headless,
		UserDataDir: cfg.UserDataDir,
		ExecPath:    cfg.ChromePath,
	}, logger)
	if err != nil {
		return err
	}
	defer browser.Close()

	onProgress := func(e engine.ProgressEvent) {
		logger.Debug("progress", zap.String("link", e.Link), zap.Stringer("state", e.State), zap.Int("step", e.Step))
	}
	var printer *observability.Printer
	if applyVerbose {
		printer = observability.NewPrinter(cmd.OutOrStdout())
		printer.PrintJobs(jobs)
		recorder = &printingRecorder{Recorder: recorder, printer: printer}
		onProgress = printer.PrintProgress
	}

	eng := buildEngine(browser, oracle.NewLLM(client, profile, logger), store, recorder, cfg, onProgress, logger)

	g, gctx := errgroup.WithContext(ctx)
	var server *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		server = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logger.Info("serving metrics", zap.String("addr", cfg.MetricsAddr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	var summary runSummary
	g.Go(func() error {
		if server != nil {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = server.Shutdown(shutdownCtx)
			}()
		}
		summary = applyAll(gctx, eng, jobs)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if printer != nil {
		printer.PrintSummary(summary.Applied, summary.Skipped, summary.Failed)
		return nil
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "applied %d, skipped %d, failed %d\n", summary.Applied, summary.Skipped, summary.Failed)
	return nil
}

// buildEngine wires the form engine onto page.
func buildEngine(page driver.Driver, orc oracle.Oracle, store answers.Store, recorder history.Recorder, cfg config.Config, onProgress engine.ProgressCallback, logger *zap.Logger) *engine.Engine {
	minPace, maxPace := cfg.Pacing()
	nav := navigator.New(page, navigator.Options{
		RedirectAttempts:     cfg.RedirectAttempts,
		EntryRefreshAttempts: cfg.EntryRefreshAttempts,
		MaxSteps:             cfg.MaxSteps,
		Pacing:               navigator.Pacing{Min: minPace, Max: maxPace},
	}, logger)

	handler := attach.NewHandler(orc,
		attach.NewHTTPGenerator(cfg.GenerationURL, cfg.GenerationTimeout()),
		rendering.PDFLaTeX{Timeout: rendering.CompilationTimeout},
		attach.Options{
			MasterResumePath: cfg.MasterResume,
			OutputDir:        cfg.OutputDir,
			CandidateName:    cfg.Name,
		}, logger)

	resolver := answers.NewResolver(store, orc, cfg.SimilarityThreshold, logger)

	return engine.New(engine.Components{
		Page:       page,
		Oracle:     orc,
		Navigator:  nav,
		Classifier: forms.NewClassifier(nil, logger),
		Filler:     forms.NewFiller(resolver, handler, cfg.AutofillSettle(), logger),
		Reader:     jobpage.NewReader(page, minPace, logger),
		Recorder:   recorder,
	}, engine.Options{
		ScoreThreshold: cfg.ScoreThreshold,
		OnProgress:     onProgress,
	}, logger)
}

// printingRecorder prints every attempt before handing it to the wrapped recorder.
type printingRecorder struct {
	history.Recorder
	printer *observability.Printer
}

func (r *printingRecorder) Record(ctx context.Context, a *history.Attempt) error {
	r.printer.PrintAttempt(a)
	return r.Recorder.Record(ctx, a)
}

type applier interface {
	Apply(ctx context.Context, job *types.ApplicationJob) (types.Outcome, error)
}

type runSummary struct {
	Applied int
	Skipped int
	Failed  int
}

// applyAll runs jobs in order. A failed job never stops the run; a canceled context does.
func applyAll(ctx context.Context, a applier, jobs []*types.ApplicationJob) runSummary {
	var s runSummary
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		outcome, _ := a.Apply(ctx, job)
		switch outcome {
		case types.OutcomeApplied:
			s.Applied++
		case types.OutcomeSkipped:
			s.Skipped++
		default:
			s.Failed++
		}
	}
	return s
}
