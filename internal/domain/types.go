package domain

import (
	"sort"
	"strings"
)

// Classification values for a FileRecord.
const (
	ClassUnchanged   = "unchanged"
	ClassModified    = "modified"
	ClassAddedOnly   = "added-only"
	ClassRemovedOnly = "removed-only"
)

// Comment origins, in injection precedence order.
const (
	OriginProposer       = "proposer"
	OriginReviewer       = "reviewer"
	OriginStaticAnalysis = "static-analysis"
)

// FileRecord pairs a submission file with its reference counterpart.
// SourceText is empty for added-only records; TargetText is empty for
// removed-only records. Records are immutable once the matcher emits them.
type FileRecord struct {
	RelPath        string
	SourceText     string
	TargetText     string
	Classification string
}

// HunkOp is the operation of a DiffHunk.
type HunkOp int

const (
	OpEqual HunkOp = iota
	OpInsert
	OpDelete
)

// String returns the lowercase name of the operation.
func (op HunkOp) String() string {
	switch op {
	case OpEqual:
		return "equal"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// DiffHunk is a contiguous run of same-type operations in a line diff.
// SourceStart/TargetStart are 1-based line numbers in the respective file;
// a zero count means the hunk occupies no lines on that side. Concatenating
// the target-side lines of all hunks for a file reconstructs the target
// text exactly.
type DiffHunk struct {
	Op          HunkOp
	SourceStart int
	SourceLines int
	TargetStart int
	TargetLines int
	Lines       []string
}

// Comment is a single piece of line-anchored feedback. TargetLine is a
// 1-based line number in the original, unmodified target file; it never
// refers to already-annotated text. AnchorSnippet is the literal text of
// that line (or a nearby line) at generation time.
type Comment struct {
	File          string  `json:"file"`
	TargetLine    int     `json:"line"`
	AnchorSnippet string  `json:"snippet"`
	Body          string  `json:"body"`
	Category      string  `json:"category"`
	Origin        string  `json:"origin"`
	Confidence    float64 `json:"confidence"`
}

// CommentBlock is a group of comments inserted immediately before one
// original line. BeforeLine is 1-based in the original target file.
type CommentBlock struct {
	BeforeLine int
	Comments   []Comment
}

// AnnotatedFile is the original target lines interleaved with comment
// blocks. Removing all blocks reproduces the target text byte-for-byte;
// injection never mutates original lines.
type AnnotatedFile struct {
	Path         string
	Lines        []string
	FinalNewline bool
	Blocks       []CommentBlock
}

// Summary is the end-of-run assessment produced by the summarizer.
type Summary struct {
	Strengths           string `json:"strengths"`
	AreasForImprovement string `json:"areas_for_improvement"`
	OverallAssessment   string `json:"overall_assessment"`
}

// File result statuses for a run.
const (
	FileStatusSuccess = "success"
	FileStatusPartial = "partial"
	FileStatusSkipped = "skipped"
	FileStatusFailed  = "failed"
)

// DroppedComment records a comment excluded from the output and why.
// Silent data loss is disallowed: every drop is reported.
type DroppedComment struct {
	Comment Comment
	Reason  string
}

// FileReport is the per-file outcome of a run.
type FileReport struct {
	Path         string
	Status       string
	Accepted     int
	Dropped      []DroppedComment
	ReviewerNote string
	Reason       string
}

// FeedbackBundle aggregates all annotated files plus per-file reports and
// an optional overall summary. Produced once per run.
type FeedbackBundle struct {
	Files   []AnnotatedFile
	Reports []FileReport
	Summary *Summary
}

// Succeeded counts reports whose file produced annotated output.
func (b FeedbackBundle) Succeeded() int {
	n := 0
	for _, r := range b.Reports {
		if r.Status == FileStatusSuccess || r.Status == FileStatusPartial {
			n++
		}
	}
	return n
}

// Failed counts reports whose file failed outright.
func (b FeedbackBundle) Failed() int {
	n := 0
	for _, r := range b.Reports {
		if r.Status == FileStatusFailed {
			n++
		}
	}
	return n
}

// SortByPath orders annotated files and reports by relative path so bundle
// output is stable regardless of task completion order.
func (b *FeedbackBundle) SortByPath() {
	sort.Slice(b.Files, func(i, j int) bool { return b.Files[i].Path < b.Files[j].Path })
	sort.Slice(b.Reports, func(i, j int) bool { return b.Reports[i].Path < b.Reports[j].Path })
}

// SplitLines splits text into lines without dropping a trailing newline
// marker: "a\nb\n" and "a\nb" both yield ["a", "b"], and the caller is
// responsible for re-adding the trailing newline via HadFinalNewline.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// HadFinalNewline reports whether text ended with a newline.
func HadFinalNewline(text string) bool {
	return strings.HasSuffix(text, "\n")
}
