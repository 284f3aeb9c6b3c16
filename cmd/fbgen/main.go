package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/edutools/fbgen/internal/adapter/cli"
	"github.com/edutools/fbgen/internal/adapter/fs"
	"github.com/edutools/fbgen/internal/adapter/gen"
	genhttp "github.com/edutools/fbgen/internal/adapter/gen/http"
	"github.com/edutools/fbgen/internal/adapter/gen/openai"
	"github.com/edutools/fbgen/internal/adapter/gen/static"
	"github.com/edutools/fbgen/internal/adapter/gitrepo"
	"github.com/edutools/fbgen/internal/adapter/lint"
	"github.com/edutools/fbgen/internal/adapter/observability"
	"github.com/edutools/fbgen/internal/adapter/output/annotated"
	"github.com/edutools/fbgen/internal/adapter/store/sqlite"
	"github.com/edutools/fbgen/internal/config"
	"github.com/edutools/fbgen/internal/determinism"
	"github.com/edutools/fbgen/internal/domain"
	"github.com/edutools/fbgen/internal/usecase/feedback"
	"github.com/edutools/fbgen/internal/usecase/match"
	"github.com/edutools/fbgen/internal/version"
)

func main() {
	err := run()
	switch {
	case err == nil:
	case errors.Is(err, cli.ErrPartialRun):
		// The run summary was already printed; signal degradation to callers.
		os.Exit(2)
	default:
		// Redact API keys from URLs in error messages before logging
		log.Println(genhttp.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Create cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "fbgen",
		EnvPrefix:   "FBGEN",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}

	// Timestamp function for deterministic output file naming
	nowFunc := func() string {
		return time.Now().UTC().Format("20060102T150405Z")
	}

	pipelineLogger := observability.NewPipelineLogger(
		observability.ParseLevel(cfg.Logging.Level),
		observability.ParseFormat(cfg.Logging.Format),
	)

	generator, err := buildGenerator(cfg)
	if err != nil {
		return err
	}

	var analyzer feedback.Analyzer
	if cfg.Linter.Enabled {
		analyzer = lint.NewRunner(cfg.Linter.Command, cfg.Linter.Args...)
	}

	var limiter *rate.Limiter
	if cfg.Pipeline.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Pipeline.RequestsPerSecond), cfg.Pipeline.Burst)
	}

	// Initialize store if enabled
	var runStore *sqlite.Store
	if cfg.Store.Enabled {
		storeDir := filepath.Dir(cfg.Store.Path)
		if err := os.MkdirAll(storeDir, 0o755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else {
			store, err := sqlite.NewStore(cfg.Store.Path)
			if err != nil {
				log.Printf("warning: failed to initialize store: %v", err)
			} else {
				runStore = store
				defer runStore.Close()
			}
		}
	}

	application := &app{
		cfg:       cfg,
		generator: generator,
		analyzer:  analyzer,
		limiter:   limiter,
		logger:    pipelineLogger,
		writer:    annotated.NewWriter(nowFunc, cfg.Output.WrapWidth),
		store:     runStore,
		now:       nowFunc,
		rubric:    loadAssignmentText(cfg.Assignment.RubricFile, "rubric"),
		problem:   loadAssignmentText(cfg.Assignment.ProblemStatementFile, "problem statement"),
	}

	root := cli.NewRootCommand(cli.Dependencies{
		Runner:         application,
		DefaultOutput:  cfg.Output.Directory,
		DefaultWorkers: cfg.Pipeline.Workers,
		Version:        version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		if errors.Is(err, cli.ErrPartialRun) {
			return err
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "fbgen"))
	}
	return paths
}

// buildGenerator selects the generation backend from configuration.
func buildGenerator(cfg config.Config) (feedback.Generator, error) {
	switch cfg.Generator.Provider {
	case "openai":
		logLevel := genhttp.LogLevelInfo
		switch cfg.Logging.Level {
		case "debug":
			logLevel = genhttp.LogLevelDebug
		case "error":
			logLevel = genhttp.LogLevelError
		}
		logFormat := genhttp.LogFormatHuman
		if cfg.Logging.Format == "json" {
			logFormat = genhttp.LogFormatJSON
		}
		httpLogger := genhttp.NewDefaultLogger(logLevel, logFormat, cfg.Logging.RedactAPIKeys)
		opts := []openai.Option{
			openai.WithTimeout(config.Duration(cfg.HTTP.Timeout)),
			openai.WithRetryConfig(genhttp.RetryConfig{
				MaxRetries:     cfg.HTTP.MaxRetries,
				InitialBackoff: config.Duration(cfg.HTTP.InitialBackoff),
				MaxBackoff:     config.Duration(cfg.HTTP.MaxBackoff),
				Multiplier:     cfg.HTTP.BackoffMultiplier,
			}),
			openai.WithLogger(httpLogger),
		}
		if cfg.Generator.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.Generator.BaseURL))
		}
		return openai.NewClient(cfg.Generator.APIKey, cfg.Generator.Model, opts...), nil
	case "static":
		return static.NewProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported generator provider %q", cfg.Generator.Provider)
	}
}

// loadAssignmentText reads an optional assignment file, warning instead of
// failing when the file is configured but unreadable.
func loadAssignmentText(path, what string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("warning: failed to read %s file %s: %v", what, path, err)
		return ""
	}
	return string(data)
}

// app wires the configured adapters into the CLI's Runner port.
type app struct {
	cfg       config.Config
	generator feedback.Generator
	analyzer  feedback.Analyzer
	limiter   *rate.Limiter
	logger    feedback.Logger
	writer    *annotated.Writer
	store     *sqlite.Store
	now       func() string
	rubric    string
	problem   string
}

func (a *app) RunRepo(ctx context.Context, req cli.RepoRequest) (cli.Outcome, error) {
	reference, err := a.loadReference(req)
	if err != nil {
		return cli.Outcome{}, err
	}

	submission, err := fs.NewTreeLoader(req.SubmissionDir).Load()
	if err != nil {
		return cli.Outcome{}, fmt.Errorf("load submission tree: %w", err)
	}

	result := match.Match(reference, submission, match.Options{
		Include: a.cfg.Matcher.Include,
		Exclude: a.cfg.Matcher.Exclude,
	})
	for _, matchErr := range result.Errors {
		a.logger.LogWarning(ctx, "unreadable file excluded from run", map[string]interface{}{
			"error": matchErr.Error(),
		})
	}

	seed := func(file string) uint64 {
		return determinism.GenerateSeed(req.ReferenceDir, req.SubmissionDir, file)
	}

	bundle, err := a.runPipeline(ctx, result.Records, req.Workers, false, nil, seed)
	if err != nil {
		return cli.Outcome{}, err
	}

	return a.finish(ctx, bundle, finishRequest{
		OutputDir:  req.OutputDir,
		Mode:       "repo",
		Reference:  req.ReferenceDir,
		Submission: req.SubmissionDir,
	})
}

func (a *app) RunSingle(ctx context.Context, req cli.SingleRequest) (cli.Outcome, error) {
	snapshot, _, err := fs.LoadSingle(req.FilePath)
	if err != nil {
		return cli.Outcome{}, fmt.Errorf("load file: %w", err)
	}

	// An empty reference classifies the file as new, so the whole file is
	// rendered as review context.
	result := match.Match(match.Snapshot{}, snapshot, match.Options{})

	seed := func(file string) uint64 {
		return determinism.GenerateSeed(req.FilePath, file)
	}

	// Records carry the base name; the linter needs the path on disk.
	var analyzer feedback.Analyzer
	if a.analyzer != nil {
		analyzer = prefixedAnalyzer{inner: a.analyzer, dir: filepath.Dir(req.FilePath)}
	}

	bundle, err := a.runPipeline(ctx, result.Records, req.Workers, true, analyzer, seed)
	if err != nil {
		return cli.Outcome{}, err
	}

	return a.finish(ctx, bundle, finishRequest{
		OutputDir:  req.OutputDir,
		Mode:       "single",
		Submission: req.FilePath,
	})
}

func (a *app) loadReference(req cli.RepoRequest) (match.Snapshot, error) {
	if req.ReferenceRev != "" {
		snapshot, err := gitrepo.LoadRevision(req.ReferenceDir, req.ReferenceRev)
		if err != nil {
			return match.Snapshot{}, fmt.Errorf("load reference revision %s: %w", req.ReferenceRev, err)
		}
		return snapshot, nil
	}
	snapshot, err := fs.NewTreeLoader(req.ReferenceDir).Load()
	if err != nil {
		return match.Snapshot{}, fmt.Errorf("load reference tree: %w", err)
	}
	return snapshot, nil
}

func (a *app) runPipeline(ctx context.Context, records []domain.FileRecord, workers int, singleFile bool, analyzer feedback.Analyzer, seed feedback.SeedFunc) (domain.FeedbackBundle, error) {
	orchestrator := feedback.NewOrchestrator(feedback.Deps{
		Generator: a.generator,
		Analyzer:  analyzer,
		Logger:    a.logger,
		Limiter:   a.limiter,
		Seed:      seed,
	}, feedback.Options{
		Workers:          workers,
		AnchorWindow:     a.cfg.Pipeline.AnchorWindow,
		OverlapThreshold: a.cfg.Pipeline.OverlapThreshold,
		MinChangedLines:  a.cfg.Pipeline.MinChangedLines,
		Context: feedback.ContextOptions{
			Window:         a.cfg.Pipeline.ContextWindow,
			MaxTokens:      a.cfg.Pipeline.MaxContextTokens,
			EstimateTokens: gen.EstimateTokens,
		},
		Rubric:           a.rubric,
		ProblemStatement: a.problem,
		SingleFile:       singleFile,
	})

	return orchestrator.Run(ctx, records)
}

type finishRequest struct {
	OutputDir  string
	Mode       string
	Reference  string
	Submission string
}

// finish writes the bundle, records run history, and maps the bundle status
// to the CLI outcome and exit semantics.
func (a *app) finish(ctx context.Context, bundle domain.FeedbackBundle, req finishRequest) (cli.Outcome, error) {
	reportPath, err := a.writer.Write(ctx, req.OutputDir, bundle)
	if err != nil {
		return cli.Outcome{}, fmt.Errorf("write output: %w", err)
	}

	status := runStatus(bundle)

	if a.store != nil {
		run := sqlite.Run{
			RunID:      fmt.Sprintf("%s-%s", a.now(), req.Mode),
			Timestamp:  time.Now().UTC(),
			Mode:       req.Mode,
			Reference:  req.Reference,
			Submission: req.Submission,
			Status:     status,
		}
		if err := a.store.SaveRun(ctx, run, bundle.Reports); err != nil {
			log.Printf("warning: failed to record run history: %v", err)
		}
	}

	a.logger.LogInfo(ctx, "run complete", map[string]interface{}{
		"mode":   req.Mode,
		"status": status,
		"files":  len(bundle.Reports),
		"report": reportPath,
	})

	outcome := outcomeFrom(bundle, req.OutputDir)
	if status == "partial" {
		return outcome, cli.ErrPartialRun
	}
	return outcome, nil
}

func runStatus(bundle domain.FeedbackBundle) string {
	for _, report := range bundle.Reports {
		if report.Status == domain.FileStatusFailed || report.Status == domain.FileStatusPartial {
			return "partial"
		}
	}
	return "success"
}

func outcomeFrom(bundle domain.FeedbackBundle, outputDir string) cli.Outcome {
	outcome := cli.Outcome{
		OutputDir: outputDir,
		Files:     len(bundle.Reports),
		Succeeded: bundle.Succeeded(),
		Failed:    bundle.Failed(),
	}
	for _, report := range bundle.Reports {
		if report.Status == domain.FileStatusSkipped {
			outcome.Skipped++
		}
	}
	return outcome
}

// prefixedAnalyzer resolves record-relative paths against a base directory
// before invoking the linter.
type prefixedAnalyzer struct {
	inner feedback.Analyzer
	dir   string
}

func (a prefixedAnalyzer) Analyze(ctx context.Context, path string) (string, error) {
	return a.inner.Analyze(ctx, filepath.Join(a.dir, filepath.FromSlash(path)))
}

// Compile-time interface compliance checks
var _ feedback.Generator = (*openai.Client)(nil)
var _ feedback.Generator = (*static.Provider)(nil)
var _ feedback.Analyzer = (*lint.Runner)(nil)
var _ feedback.Logger = (*observability.PipelineLogger)(nil)
var _ cli.Runner = (*app)(nil)
