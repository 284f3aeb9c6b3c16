// Package feedback runs the generate-then-critique pipeline: per reviewable
// file, a proposer pass drafts comments, a reviewer pass filters and edits
// them, and the survivors are anchored into the untouched source text.
package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/edutools/fbgen/internal/diff"
	"github.com/edutools/fbgen/internal/domain"
	"github.com/edutools/fbgen/internal/usecase/anchor"
)

// Per-file pipeline states, logged as each file moves through the stages.
const (
	statePending  = "PENDING"
	stateProposed = "PROPOSED"
	stateReviewed = "REVIEWED"
	stateAccepted = "ACCEPTED"
	stateFailed   = "FAILED"
)

// DefaultMinChangedLines is the change threshold below which a modified
// file is skipped. Added files are always reviewed.
const DefaultMinChangedLines = 10

// Generator defines the outbound port for the text-generation collaborator.
// Adapters own authentication, retries, and transport; errors arriving here
// have already exhausted the retry budget.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResponse, error)
}

// GenerationRequest is the payload handed to the generation collaborator.
type GenerationRequest struct {
	Prompt string
	Role   string // proposer, reviewer, or summarizer
	Seed   uint64
}

// GenerationResponse carries the raw structured text plus token accounting.
type GenerationResponse struct {
	Text      string
	TokensIn  int
	TokensOut int
}

// Analyzer defines the outbound port for the static-analysis collaborator.
type Analyzer interface {
	Analyze(ctx context.Context, path string) (string, error)
}

// SeedFunc generates deterministic seeds per file scope.
type SeedFunc func(file string) uint64

// Deps captures the orchestrator's injected collaborators. Analyzer,
// Logger, Limiter, and Seed are optional.
type Deps struct {
	Generator Generator
	Analyzer  Analyzer
	Logger    Logger
	Limiter   *rate.Limiter
	Seed      SeedFunc
}

// Options carries the run policy. Zero values fall back to the documented
// defaults.
type Options struct {
	Workers          int
	AnchorWindow     int
	OverlapThreshold float64
	MinChangedLines  int
	Context          ContextOptions
	Rubric           string
	ProblemStatement string

	// SingleFile enables static analysis and the end-of-run summary.
	SingleFile bool
}

// Orchestrator drives the per-file proposer/reviewer pipeline over a
// bounded worker pool.
type Orchestrator struct {
	deps    Deps
	opts    Options
	prompts PromptBuilder
}

// NewOrchestrator wires the orchestrator dependencies and fills option
// defaults.
func NewOrchestrator(deps Deps, opts Options) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.OverlapThreshold <= 0 {
		opts.OverlapThreshold = DefaultOverlapThreshold
	}
	if opts.MinChangedLines <= 0 {
		opts.MinChangedLines = DefaultMinChangedLines
	}
	return &Orchestrator{
		deps:    deps,
		opts:    opts,
		prompts: PromptBuilder{Rubric: opts.Rubric, ProblemStatement: opts.ProblemStatement},
	}
}

type fileResult struct {
	file   *domain.AnnotatedFile
	report domain.FileReport
}

// Run executes the pipeline over every reviewable record and assembles the
// FeedbackBundle. Files fail independently; the run errors only when no
// file succeeds. Cancellation abandons unstarted files but preserves every
// completed result.
func (o *Orchestrator) Run(ctx context.Context, records []domain.FileRecord) (domain.FeedbackBundle, error) {
	if o.deps.Generator == nil {
		return domain.FeedbackBundle{}, errors.New("generator is required")
	}

	reviewable := make([]domain.FileRecord, 0, len(records))
	for _, r := range records {
		if r.Classification == domain.ClassModified || r.Classification == domain.ClassAddedOnly {
			reviewable = append(reviewable, r)
		}
	}
	if len(reviewable) == 0 {
		return domain.FeedbackBundle{}, errors.New("no reviewable files")
	}

	pool := newWorkerPool(o.opts.Workers)
	results := make(chan fileResult, len(reviewable))

	for _, record := range reviewable {
		record := record
		if err := pool.Submit(ctx, func() {
			results <- o.processFile(ctx, record)
		}); err != nil {
			// Cancelled before the task started; the file never ran.
			results <- fileResult{report: domain.FileReport{
				Path:   record.RelPath,
				Status: domain.FileStatusFailed,
				Reason: err.Error(),
			}}
		}
	}

	pool.Wait()
	close(results)

	var bundle domain.FeedbackBundle
	for res := range results {
		if res.file != nil {
			bundle.Files = append(bundle.Files, *res.file)
		}
		bundle.Reports = append(bundle.Reports, res.report)
	}
	bundle.SortByPath()

	if bundle.Succeeded() == 0 {
		return bundle, fmt.Errorf("all %d files failed or were skipped", len(reviewable))
	}

	if o.opts.SingleFile {
		o.summarize(ctx, &bundle)
	}

	return bundle, nil
}

// processFile walks one record through PENDING, PROPOSED, REVIEWED, and a
// terminal ACCEPTED or FAILED.
func (o *Orchestrator) processFile(ctx context.Context, record domain.FileRecord) fileResult {
	o.logState(ctx, record.RelPath, statePending)

	hunks, err := diff.Compute(record.SourceText, record.TargetText)
	if err != nil {
		return o.fail(ctx, record.RelPath, domain.NewError(domain.ErrKindDiff, record.RelPath, err))
	}

	if record.Classification == domain.ClassModified && diff.ChangedCount(hunks) < o.opts.MinChangedLines {
		return fileResult{report: domain.FileReport{
			Path:   record.RelPath,
			Status: domain.FileStatusSkipped,
			Reason: fmt.Sprintf("fewer than %d changed lines", o.opts.MinChangedLines),
		}}
	}

	block := AssembleContext(record, hunks, o.opts.Context)
	seed := o.seedFor(record.RelPath)

	// Proposer stage.
	proposerPrompt, err := o.prompts.Proposer(block)
	if err != nil {
		return o.fail(ctx, record.RelPath, err)
	}
	proposal, err := o.generate(ctx, record.RelPath, GenerationRequest{Prompt: proposerPrompt, Role: RoleProposer, Seed: seed})
	if err != nil {
		return o.fail(ctx, record.RelPath, err)
	}
	candidates, err := ParseComments(proposal.Text, record.RelPath, domain.OriginProposer)
	if err != nil {
		return o.fail(ctx, record.RelPath, err)
	}
	o.logState(ctx, record.RelPath, stateProposed)

	// Static analysis runs between the stages so the reviewer sees a
	// condensed picture of what the linter found.
	var lintComments []domain.Comment
	var lintSummary string
	if o.opts.SingleFile && o.deps.Analyzer != nil {
		lintComments, lintSummary = o.analyze(ctx, record.RelPath, seed)
	}

	// Reviewer stage, always against the original context block.
	candidatesJSON, err := json.Marshal(commentsPayload{Comments: candidates})
	if err != nil {
		return o.fail(ctx, record.RelPath, err)
	}
	reviewerPrompt, err := o.prompts.Reviewer(block, string(candidatesJSON), lintSummary)
	if err != nil {
		return o.fail(ctx, record.RelPath, err)
	}
	review, err := o.generate(ctx, record.RelPath, GenerationRequest{Prompt: reviewerPrompt, Role: RoleReviewer, Seed: seed})
	if err != nil {
		return o.fail(ctx, record.RelPath, err)
	}
	accepted, note, err := ParseReview(review.Text, record.RelPath)
	if err != nil {
		return o.fail(ctx, record.RelPath, err)
	}
	o.logState(ctx, record.RelPath, stateReviewed)

	accepted = RetagEdited(candidates, accepted)
	accepted = MergeDuplicates(accepted, o.opts.OverlapThreshold)
	accepted = append(accepted, lintComments...)

	resolution := anchor.Resolve(accepted, domain.SplitLines(record.TargetText), o.opts.AnchorWindow)
	for _, d := range resolution.Dropped {
		o.logWarning(ctx, "dropped comment", map[string]interface{}{
			"file":   record.RelPath,
			"line":   d.Comment.TargetLine,
			"reason": d.Reason,
		})
	}

	annotated := anchor.Inject(record.RelPath, record.TargetText, anchor.Group(resolution.Resolved))

	status := domain.FileStatusSuccess
	if len(resolution.Dropped) > 0 {
		status = domain.FileStatusPartial
	}
	o.logState(ctx, record.RelPath, stateAccepted)

	return fileResult{
		file: &annotated,
		report: domain.FileReport{
			Path:         record.RelPath,
			Status:       status,
			Accepted:     len(resolution.Resolved),
			Dropped:      resolution.Dropped,
			ReviewerNote: note,
		},
	}
}

// generate waits on the shared rate limiter, invokes the collaborator, and
// logs token usage.
func (o *Orchestrator) generate(ctx context.Context, file string, req GenerationRequest) (GenerationResponse, error) {
	if o.deps.Limiter != nil {
		if err := o.deps.Limiter.Wait(ctx); err != nil {
			return GenerationResponse{}, domain.NewError(domain.ErrKindGenerationTransient, file, err)
		}
	}

	resp, err := o.deps.Generator.Generate(ctx, req)
	if err != nil {
		return GenerationResponse{}, err
	}

	o.logInfo(ctx, "generation call", map[string]interface{}{
		"file":      file,
		"role":      req.Role,
		"tokensIn":  resp.TokensIn,
		"tokensOut": resp.TokensOut,
	})
	return resp, nil
}

// analyze runs the linter and condenses its output through a summarizer
// call. Analysis failures degrade to no diagnostics, never a file failure.
func (o *Orchestrator) analyze(ctx context.Context, path string, seed uint64) ([]domain.Comment, string) {
	raw, err := o.deps.Analyzer.Analyze(ctx, path)
	if err != nil {
		o.logWarning(ctx, "static analysis failed", map[string]interface{}{
			"file":  path,
			"error": err.Error(),
		})
		return nil, ""
	}
	if strings.TrimSpace(raw) == "" {
		return nil, ""
	}

	comments := ParseDiagnostics(raw, path)

	resp, err := o.generate(ctx, path, GenerationRequest{
		Prompt: o.prompts.LintDigest(raw),
		Role:   RoleSummarizer,
		Seed:   seed,
	})
	if err != nil {
		o.logWarning(ctx, "lint summarization failed", map[string]interface{}{
			"file":  path,
			"error": err.Error(),
		})
		return comments, ""
	}
	return comments, strings.TrimSpace(resp.Text)
}

// summarize produces the end-of-run Summary. Failure degrades to a bundle
// without one; the run stays a partial success.
func (o *Orchestrator) summarize(ctx context.Context, bundle *domain.FeedbackBundle) {
	var digest strings.Builder
	for _, f := range bundle.Files {
		for _, b := range f.Blocks {
			for _, c := range b.Comments {
				fmt.Fprintf(&digest, "- %s:%d [%s] %s\n", f.Path, b.BeforeLine, c.Category, c.Body)
			}
		}
	}
	if digest.Len() == 0 {
		return
	}

	prompt, err := o.prompts.Summary(digest.String())
	if err != nil {
		o.logWarning(ctx, "summary prompt failed", map[string]interface{}{"error": err.Error()})
		return
	}

	resp, err := o.generate(ctx, "", GenerationRequest{Prompt: prompt, Role: RoleSummarizer, Seed: o.seedFor("")})
	if err != nil {
		o.logWarning(ctx, "summarization failed", map[string]interface{}{"error": err.Error()})
		return
	}

	summary, err := ParseSummary(resp.Text)
	if err != nil {
		o.logWarning(ctx, "summary parse failed", map[string]interface{}{"error": err.Error()})
		return
	}
	bundle.Summary = &summary
}

func (o *Orchestrator) fail(ctx context.Context, path string, err error) fileResult {
	o.logState(ctx, path, stateFailed)
	o.logWarning(ctx, "file failed", map[string]interface{}{
		"file":  path,
		"error": err.Error(),
	})
	return fileResult{report: domain.FileReport{
		Path:   path,
		Status: domain.FileStatusFailed,
		Reason: err.Error(),
	}}
}

func (o *Orchestrator) seedFor(file string) uint64 {
	if o.deps.Seed == nil {
		return 0
	}
	return o.deps.Seed(file)
}

func (o *Orchestrator) logState(ctx context.Context, file, state string) {
	o.logInfo(ctx, "file state", map[string]interface{}{"file": file, "state": state})
}

func (o *Orchestrator) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogInfo(ctx, msg, fields)
	}
}

func (o *Orchestrator) logWarning(ctx context.Context, msg string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogWarning(ctx, msg, fields)
	}
}
