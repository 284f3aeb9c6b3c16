package anchor

import (
	"path/filepath"
	"strings"

	"github.com/edutools/fbgen/internal/domain"
)

// DefaultWrapWidth is the column at which comment bodies wrap.
const DefaultWrapWidth = 80

// CommentStyle describes how review blocks are written in a given source
// language.
type CommentStyle struct {
	Open       string // opening delimiter line, empty for line-comment styles
	LinePrefix string // prefix for each body line
	Close      string // closing delimiter line, empty for line-comment styles
}

var (
	blockStyle = CommentStyle{Open: "/*", LinePrefix: " * ", Close: " */"}
	hashStyle  = CommentStyle{LinePrefix: "# "}
	slashStyle = CommentStyle{LinePrefix: "// "}
)

// StyleFor picks the comment syntax matching the file's extension. C-family
// sources get block comments like the rest of the file; unknown extensions
// fall back to hash comments, which most tooling tolerates.
func StyleFor(path string) CommentStyle {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".c", ".h", ".cpp", ".hpp", ".cc", ".hh", ".java", ".css":
		return blockStyle
	case ".go", ".js", ".ts", ".rs", ".scala", ".kt":
		return slashStyle
	default:
		return hashStyle
	}
}

// Render produces the final annotated text: original lines byte-for-byte,
// with each comment block inserted immediately before its target line.
func Render(file domain.AnnotatedFile, style CommentStyle, width int) string {
	if width <= 0 {
		width = DefaultWrapWidth
	}

	blockAt := make(map[int]domain.CommentBlock, len(file.Blocks))
	for _, b := range file.Blocks {
		blockAt[b.BeforeLine] = b
	}

	var out strings.Builder
	for i, line := range file.Lines {
		if block, ok := blockAt[i+1]; ok {
			out.WriteString(renderBlock(block, style, width))
		}
		out.WriteString(line)
		if i < len(file.Lines)-1 || file.FinalNewline {
			out.WriteByte('\n')
		}
	}
	return out.String()
}

func renderBlock(block domain.CommentBlock, style CommentStyle, width int) string {
	var b strings.Builder
	if style.Open != "" {
		b.WriteString(style.Open)
		b.WriteByte('\n')
	}
	for i, c := range block.Comments {
		if i > 0 {
			b.WriteString(strings.TrimRight(style.LinePrefix, " "))
			b.WriteByte('\n')
		}
		body := "REVIEW: " + c.Body
		for _, wrapped := range wrap(body, width-len(style.LinePrefix)) {
			b.WriteString(style.LinePrefix)
			b.WriteString(wrapped)
			b.WriteByte('\n')
		}
	}
	if style.Close != "" {
		b.WriteString(style.Close)
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderSummary formats the end-of-run summary as a trailing comment block
// with three named subsections.
func RenderSummary(summary domain.Summary, style CommentStyle, width int) string {
	if width <= 0 {
		width = DefaultWrapWidth
	}

	sections := []struct {
		title string
		text  string
	}{
		{"STRENGTHS", summary.Strengths},
		{"AREAS FOR IMPROVEMENT", summary.AreasForImprovement},
		{"OVERALL ASSESSMENT", summary.OverallAssessment},
	}

	var b strings.Builder
	b.WriteByte('\n')
	if style.Open != "" {
		b.WriteString(style.Open)
		b.WriteByte('\n')
	}
	for _, s := range sections {
		b.WriteString(style.LinePrefix)
		b.WriteString(s.title)
		b.WriteString(":\n")
		for _, wrapped := range wrap(s.text, width-len(style.LinePrefix)) {
			b.WriteString(style.LinePrefix)
			b.WriteString(wrapped)
			b.WriteByte('\n')
		}
		b.WriteString(strings.TrimRight(style.LinePrefix, " "))
		b.WriteByte('\n')
	}
	if style.Close != "" {
		b.WriteString(style.Close)
		b.WriteByte('\n')
	}
	return b.String()
}

// wrap greedily wraps text at width columns, never breaking words.
func wrap(text string, width int) []string {
	if width <= 0 {
		width = DefaultWrapWidth
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
			continue
		}
		current += " " + word
	}
	return append(lines, current)
}
