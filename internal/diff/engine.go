package diff

import (
	"errors"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/edutools/fbgen/internal/domain"
)

// ErrBinaryContent indicates the edit-script primitive was handed content
// it cannot treat as lines of text.
var ErrBinaryContent = errors.New("content contains NUL bytes")

// Compute runs a line-level diff between sourceText and targetText and
// collapses the edit script into ordered DiffHunks. sourceText may be empty
// (added-only files), in which case the result is a single insert hunk.
func Compute(sourceText, targetText string) ([]domain.DiffHunk, error) {
	if strings.ContainsRune(sourceText, 0) || strings.ContainsRune(targetText, 0) {
		return nil, ErrBinaryContent
	}

	if sourceText == "" && targetText == "" {
		return nil, nil
	}

	dmp := diffmatchpatch.New()
	srcRunes, dstRunes, lineIndex := dmp.DiffLinesToChars(sourceText, targetText)
	script := dmp.DiffMain(srcRunes, dstRunes, false)
	script = dmp.DiffCharsToLines(script, lineIndex)

	hunks := make([]domain.DiffHunk, 0, len(script))
	srcLine, tgtLine := 1, 1

	for _, d := range script {
		lines := domain.SplitLines(d.Text)
		if len(lines) == 0 {
			continue
		}

		var op domain.HunkOp
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			op = domain.OpEqual
		case diffmatchpatch.DiffInsert:
			op = domain.OpInsert
		case diffmatchpatch.DiffDelete:
			op = domain.OpDelete
		}

		hunk := domain.DiffHunk{Op: op, Lines: lines}
		switch op {
		case domain.OpEqual:
			hunk.SourceStart, hunk.SourceLines = srcLine, len(lines)
			hunk.TargetStart, hunk.TargetLines = tgtLine, len(lines)
			srcLine += len(lines)
			tgtLine += len(lines)
		case domain.OpInsert:
			hunk.SourceStart = srcLine
			hunk.TargetStart, hunk.TargetLines = tgtLine, len(lines)
			tgtLine += len(lines)
		case domain.OpDelete:
			hunk.SourceStart, hunk.SourceLines = srcLine, len(lines)
			hunk.TargetStart = tgtLine
			srcLine += len(lines)
		}

		// Collapse adjacent same-type runs so hunks stay maximal.
		if n := len(hunks); n > 0 && hunks[n-1].Op == op {
			prev := &hunks[n-1]
			prev.Lines = append(prev.Lines, lines...)
			prev.SourceLines += hunk.SourceLines
			prev.TargetLines += hunk.TargetLines
			continue
		}
		hunks = append(hunks, hunk)
	}

	return hunks, nil
}

// ChangedTargetLines returns the set of 1-based target line numbers covered
// by insert hunks.
func ChangedTargetLines(hunks []domain.DiffHunk) map[int]bool {
	changed := make(map[int]bool)
	for _, h := range hunks {
		if h.Op != domain.OpInsert {
			continue
		}
		for i := 0; i < h.TargetLines; i++ {
			changed[h.TargetStart+i] = true
		}
	}
	return changed
}

// ChangedCount returns the number of target lines covered by insert hunks.
func ChangedCount(hunks []domain.DiffHunk) int {
	n := 0
	for _, h := range hunks {
		if h.Op == domain.OpInsert {
			n += h.TargetLines
		}
	}
	return n
}

// ReconstructTarget concatenates the target-side lines of all hunks. Used
// by tests to check the coverage invariant.
func ReconstructTarget(hunks []domain.DiffHunk) []string {
	var lines []string
	for _, h := range hunks {
		if h.Op == domain.OpDelete {
			continue
		}
		lines = append(lines, h.Lines...)
	}
	return lines
}
