// Package annotated persists feedback bundles: one annotated source file
// per reviewed file plus a plain-text run report.
package annotated

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/edutools/fbgen/internal/domain"
	"github.com/edutools/fbgen/internal/usecase/anchor"
)

type clock func() string

// Writer renders a FeedbackBundle into an output directory, mirroring the
// submission's relative paths.
type Writer struct {
	now       clock
	wrapWidth int
}

// NewWriter constructs a writer with a timestamp supplier for the run
// report. wrapWidth of zero uses the default comment wrap width.
func NewWriter(now clock, wrapWidth int) *Writer {
	return &Writer{now: now, wrapWidth: wrapWidth}
}

// Write persists every annotated file and the run report. The returned path
// is the report's. Single-file bundles with a summary get the summary block
// appended to the annotated file.
func (w *Writer) Write(ctx context.Context, outputDir string, bundle domain.FeedbackBundle) (string, error) {
	for _, file := range bundle.Files {
		path := filepath.Join(outputDir, filepath.FromSlash(file.Path))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("create output dir: %w", err)
		}

		style := anchor.StyleFor(file.Path)
		content := anchor.Render(file, style, w.wrapWidth)
		if bundle.Summary != nil {
			content += anchor.RenderSummary(*bundle.Summary, style, w.wrapWidth)
		}

		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return "", fmt.Errorf("write annotated file %q: %w", file.Path, err)
		}
	}

	reportPath := filepath.Join(outputDir, fmt.Sprintf("report_%s.txt", w.now()))
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(reportPath, []byte(BuildReport(bundle)), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	return reportPath, nil
}

// BuildReport renders the per-file outcome table: status, accepted counts,
// every dropped comment with its reason, and totals. Nothing is dropped
// silently, so the report is the run's complete record.
func BuildReport(bundle domain.FeedbackBundle) string {
	var b strings.Builder
	caser := cases.Title(language.English)

	b.WriteString("Feedback Run Report\n")
	b.WriteString("===================\n\n")

	accepted, dropped := 0, 0
	for _, r := range bundle.Reports {
		fmt.Fprintf(&b, "%s: %s", r.Path, caser.String(r.Status))
		if r.Reason != "" {
			fmt.Fprintf(&b, " (%s)", r.Reason)
		}
		b.WriteByte('\n')

		if r.Status == domain.FileStatusSuccess || r.Status == domain.FileStatusPartial {
			fmt.Fprintf(&b, "  accepted comments: %d\n", r.Accepted)
		}
		if r.ReviewerNote != "" {
			fmt.Fprintf(&b, "  reviewer note: %s\n", r.ReviewerNote)
		}
		for _, d := range r.Dropped {
			fmt.Fprintf(&b, "  dropped (line %d): %s\n", d.Comment.TargetLine, d.Reason)
		}

		accepted += r.Accepted
		dropped += len(r.Dropped)
	}

	fmt.Fprintf(&b, "\nFiles: %d succeeded, %d failed, %d total\n",
		bundle.Succeeded(), bundle.Failed(), len(bundle.Reports))
	fmt.Fprintf(&b, "Comments: %d accepted, %d dropped\n", accepted, dropped)
	if bundle.Summary == nil {
		b.WriteString("Summary: not generated\n")
	}

	return b.String()
}
