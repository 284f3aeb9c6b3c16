// Package anchor resolves approximately-located comments to exact positions
// in untouched source text and produces annotated output.
//
// Comments arrive with line numbers assigned against the pristine target
// file. Insertion positions are always computed against that immutable
// original numbering in a single forward pass, never against a buffer that
// is being mutated, so earlier insertions cannot shift later ones.
package anchor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/edutools/fbgen/internal/domain"
)

// DefaultWindow is the fuzzy-match tolerance in lines on either side of a
// comment's reported target line.
const DefaultWindow = 2

// Resolution is the outcome of verifying a comment set against the target
// text. Dropped comments carry their reason; nothing is lost silently.
type Resolution struct {
	Resolved []domain.Comment
	Dropped  []domain.DroppedComment
}

// Resolve verifies each comment's anchor snippet against the target lines.
// Matching tries the exact snippet at the reported line first, then exact
// matches at nearby lines (closest first), then whitespace-normalized
// matches in the same order. A comment that cannot be matched within the
// window is dropped, never mis-placed. Comments without a snippet are
// accepted as long as the reported line exists.
func Resolve(comments []domain.Comment, targetLines []string, window int) Resolution {
	if window <= 0 {
		window = DefaultWindow
	}

	var res Resolution
	for _, c := range comments {
		line, ok := locate(c, targetLines, window)
		if !ok {
			res.Dropped = append(res.Dropped, domain.DroppedComment{
				Comment: c,
				Reason: domain.NewAnchorError(c.File, c.TargetLine,
					fmt.Errorf("anchor %q not found within %d lines", c.AnchorSnippet, window)).Error(),
			})
			continue
		}
		c.TargetLine = line
		res.Resolved = append(res.Resolved, c)
	}
	return res
}

func locate(c domain.Comment, lines []string, window int) (int, bool) {
	if c.TargetLine < 1 || len(lines) == 0 {
		return 0, false
	}

	if c.AnchorSnippet == "" {
		if c.TargetLine <= len(lines) {
			return c.TargetLine, true
		}
		return 0, false
	}

	// Closest-first offsets: 0, -1, +1, -2, +2, ...
	offsets := make([]int, 0, 2*window+1)
	offsets = append(offsets, 0)
	for d := 1; d <= window; d++ {
		offsets = append(offsets, -d, d)
	}

	for _, exact := range []bool{true, false} {
		for _, off := range offsets {
			line := c.TargetLine + off
			if line < 1 || line > len(lines) {
				continue
			}
			if snippetMatches(c.AnchorSnippet, lines[line-1], exact) {
				return line, true
			}
		}
	}
	return 0, false
}

func snippetMatches(snippet, line string, exact bool) bool {
	if exact {
		return snippet == line
	}
	return normalizeSpace(snippet) == normalizeSpace(line)
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Group collects resolved comments into per-line blocks, ordering bodies
// within a block static-analysis first, then the rest by descending
// confidence (stable for equal confidence). Blocks come back sorted by
// ascending line number.
func Group(comments []domain.Comment) []domain.CommentBlock {
	byLine := make(map[int][]domain.Comment)
	for _, c := range comments {
		byLine[c.TargetLine] = append(byLine[c.TargetLine], c)
	}

	blocks := make([]domain.CommentBlock, 0, len(byLine))
	for line, group := range byLine {
		sort.SliceStable(group, func(i, j int) bool {
			a, b := group[i], group[j]
			aStatic := a.Origin == domain.OriginStaticAnalysis
			bStatic := b.Origin == domain.OriginStaticAnalysis
			if aStatic != bStatic {
				return aStatic
			}
			return a.Confidence > b.Confidence
		})
		blocks = append(blocks, domain.CommentBlock{BeforeLine: line, Comments: group})
	}

	sort.Slice(blocks, func(i, j int) bool { return blocks[i].BeforeLine < blocks[j].BeforeLine })
	return blocks
}

// Inject builds the AnnotatedFile for targetText from pre-resolved blocks.
// Original lines are copied unmodified and in order; each block attaches
// immediately before its target line. The transform is a pure insertion:
// Strip recovers targetText byte-for-byte.
func Inject(path, targetText string, blocks []domain.CommentBlock) domain.AnnotatedFile {
	return domain.AnnotatedFile{
		Path:         path,
		Lines:        domain.SplitLines(targetText),
		FinalNewline: domain.HadFinalNewline(targetText),
		Blocks:       blocks,
	}
}

// Strip returns the original target text of an annotated file, discarding
// every inserted block.
func Strip(file domain.AnnotatedFile) string {
	if len(file.Lines) == 0 {
		return ""
	}
	text := strings.Join(file.Lines, "\n")
	if file.FinalNewline {
		text += "\n"
	}
	return text
}
