package feedback

import (
	"fmt"
	"strings"

	"github.com/edutools/fbgen/internal/domain"
)

// DefaultContextWindow is the number of unchanged lines kept around each
// change when rendering diff context.
const DefaultContextWindow = 3

const elisionMarker = "   ..."

// ContextBlock is the bounded textual representation of one file's changes,
// ready to embed in a generation prompt. Rendered shows changed regions with
// explicit line numbers and surrounding context; long unchanged regions are
// elided.
type ContextBlock struct {
	File           string
	Classification string
	Rendered       string
	Truncated      bool
}

// ContextOptions bounds the assembled context.
type ContextOptions struct {
	// Window is the number of unchanged lines shown on each side of a
	// change. Zero means DefaultContextWindow.
	Window int
	// MaxTokens caps the rendered block when EstimateTokens is set; zero
	// disables the cap.
	MaxTokens int
	// EstimateTokens estimates the token count of a string. Nil disables
	// token bounding.
	EstimateTokens func(string) int
}

// AssembleContext renders the diff of one file record into a ContextBlock.
// Pure and deterministic: the same record and hunks always produce the same
// block. Changed lines carry a "+ " marker after the line number; unchanged
// context lines carry none; elided regions collapse to a marker line.
func AssembleContext(record domain.FileRecord, hunks []domain.DiffHunk, opts ContextOptions) ContextBlock {
	window := opts.Window
	if window <= 0 {
		window = DefaultContextWindow
	}

	block := ContextBlock{
		File:           record.RelPath,
		Classification: record.Classification,
		Rendered:       renderHunks(hunks, window),
	}

	if opts.EstimateTokens == nil || opts.MaxTokens <= 0 {
		return block
	}
	if opts.EstimateTokens(block.Rendered) <= opts.MaxTokens {
		return block
	}

	// Over budget: shrink context to one line per side, then truncate
	// whole lines from the tail as a last resort.
	block.Rendered = renderHunks(hunks, 1)
	block.Truncated = true
	for opts.EstimateTokens(block.Rendered) > opts.MaxTokens {
		lines := strings.Split(block.Rendered, "\n")
		if len(lines) <= 1 {
			break
		}
		block.Rendered = strings.Join(lines[:len(lines)-1], "\n")
	}
	return block
}

func renderHunks(hunks []domain.DiffHunk, window int) string {
	var b strings.Builder
	for i, h := range hunks {
		switch h.Op {
		case domain.OpDelete:
			// Deleted reference lines carry no target position and are
			// not shown; the insert hunk that replaces them is.
			continue
		case domain.OpInsert:
			for j, line := range h.Lines {
				writeLine(&b, h.TargetStart+j, "+ ", line)
			}
		case domain.OpEqual:
			writeEqual(&b, h, window, i == 0, i == len(hunks)-1)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// writeEqual keeps up to window lines adjacent to the neighbouring changes
// and elides the middle. The first hunk only needs trailing context; the
// last only leading.
func writeEqual(b *strings.Builder, h domain.DiffHunk, window int, first, last bool) {
	head, tail := window, window
	if first {
		head = 0
	}
	if last {
		tail = 0
	}

	if len(h.Lines) <= head+tail {
		for j, line := range h.Lines {
			writeLine(b, h.TargetStart+j, "", line)
		}
		return
	}

	for j := 0; j < head; j++ {
		writeLine(b, h.TargetStart+j, "", h.Lines[j])
	}
	b.WriteString(elisionMarker)
	b.WriteByte('\n')
	for j := len(h.Lines) - tail; j < len(h.Lines); j++ {
		writeLine(b, h.TargetStart+j, "", h.Lines[j])
	}
}

func writeLine(b *strings.Builder, number int, marker, line string) {
	fmt.Fprintf(b, "%4d | %s%s\n", number, marker, line)
}
