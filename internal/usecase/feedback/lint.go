package feedback

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/edutools/fbgen/internal/domain"
)

// diagnosticLine matches the path:line:col:severity:message shape emitted
// by clang-tidy and most compiler-style linters.
var diagnosticLine = regexp.MustCompile(`^(.+?):(\d+):(\d+):\s*([a-z]+):\s*(.+)$`)

// ParseDiagnostics converts raw analyzer output into static-analysis
// comments at full confidence. Lines that do not parse, and "note" lines
// that only elaborate a preceding diagnostic, are skipped. file overrides
// the path the analyzer printed, which is usually absolute.
func ParseDiagnostics(output, file string) []domain.Comment {
	var comments []domain.Comment
	for _, line := range strings.Split(output, "\n") {
		m := diagnosticLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}

		severity := m[4]
		if severity == "note" {
			continue
		}

		lineNo, err := strconv.Atoi(m[2])
		if err != nil || lineNo < 1 {
			continue
		}

		comments = append(comments, domain.Comment{
			File:       file,
			TargetLine: lineNo,
			Body:       strings.TrimSpace(m[5]),
			Category:   severity,
			Origin:     domain.OriginStaticAnalysis,
			Confidence: 1.0,
		})
	}
	return comments
}
