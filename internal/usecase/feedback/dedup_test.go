package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutools/fbgen/internal/domain"
)

func TestMergeDuplicatesKeepsHigherConfidenceWording(t *testing.T) {
	comments := []domain.Comment{
		{File: "f.c", TargetLine: 5, Body: "this variable name is unclear and should change", Confidence: 0.4},
		{File: "f.c", TargetLine: 5, Body: "this variable name is unclear and should change now", Confidence: 0.9},
	}

	merged := MergeDuplicates(comments, 0.80)

	require.Len(t, merged, 1)
	assert.Equal(t, 0.9, merged[0].Confidence)
	assert.Contains(t, merged[0].Body, "now")
}

func TestMergeDuplicatesDifferentLinesUntouched(t *testing.T) {
	comments := []domain.Comment{
		{File: "f.c", TargetLine: 5, Body: "identical body"},
		{File: "f.c", TargetLine: 6, Body: "identical body"},
	}

	assert.Len(t, MergeDuplicates(comments, 0.80), 2)
}

func TestMergeDuplicatesBelowThresholdUntouched(t *testing.T) {
	comments := []domain.Comment{
		{File: "f.c", TargetLine: 5, Body: "rename this variable for clarity"},
		{File: "f.c", TargetLine: 5, Body: "missing bounds check on the buffer"},
	}

	assert.Len(t, MergeDuplicates(comments, 0.80), 2)
}

func TestBodyOverlap(t *testing.T) {
	assert.Equal(t, 1.0, bodyOverlap("use a constant here", "use a constant here"))
	assert.Equal(t, 0.0, bodyOverlap("", "anything"))
	assert.Greater(t, bodyOverlap("rename the loop index", "rename the loop index please"), 0.9)
}

func TestParseDiagnostics(t *testing.T) {
	output := `/home/x/main.c:12:5: warning: unused variable 'n' [clang-diagnostic-unused-variable]
/home/x/main.c:12:5: note: declared here
/home/x/main.c:30:1: error: expected '}'
garbage line without structure
`

	comments := ParseDiagnostics(output, "main.c")

	require.Len(t, comments, 2)
	assert.Equal(t, 12, comments[0].TargetLine)
	assert.Equal(t, "warning", comments[0].Category)
	assert.Equal(t, "main.c", comments[0].File)
	assert.Equal(t, 1.0, comments[0].Confidence)
	assert.Equal(t, domain.OriginStaticAnalysis, comments[0].Origin)
	assert.Equal(t, 30, comments[1].TargetLine)
	assert.Equal(t, "error", comments[1].Category)
}
