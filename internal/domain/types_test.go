package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		lines []string
		final bool
	}{
		{"empty", "", nil, false},
		{"trailing newline", "a\nb\n", []string{"a", "b"}, true},
		{"no trailing newline", "a\nb", []string{"a", "b"}, false},
		{"single line", "only\n", []string{"only"}, true},
		{"blank interior line", "a\n\nb\n", []string{"a", "", "b"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.lines, SplitLines(tt.text))
			assert.Equal(t, tt.final, HadFinalNewline(tt.text))
		})
	}
}

func TestErrorKindMatching(t *testing.T) {
	err := NewError(ErrKindIO, "main.c", fmt.Errorf("permission denied"))

	assert.True(t, errors.Is(err, &Error{Kind: ErrKindIO}))
	assert.False(t, errors.Is(err, &Error{Kind: ErrKindDiff}))
	assert.Contains(t, err.Error(), "IOError")
	assert.Contains(t, err.Error(), "main.c")
}

func TestAnchorErrorIncludesLine(t *testing.T) {
	err := NewAnchorError("wish.c", 42, fmt.Errorf("no match within window"))

	assert.Contains(t, err.Error(), "wish.c:42")
	assert.True(t, errors.Is(err, &Error{Kind: ErrKindAnchorResolution}))
}

func TestBundleCounts(t *testing.T) {
	bundle := FeedbackBundle{
		Reports: []FileReport{
			{Path: "a.c", Status: FileStatusSuccess},
			{Path: "b.c", Status: FileStatusPartial},
			{Path: "c.c", Status: FileStatusFailed},
			{Path: "d.c", Status: FileStatusSkipped},
		},
	}

	assert.Equal(t, 2, bundle.Succeeded())
	assert.Equal(t, 1, bundle.Failed())
}

func TestBundleSortByPath(t *testing.T) {
	bundle := FeedbackBundle{
		Files: []AnnotatedFile{{Path: "z.c"}, {Path: "a.c"}},
		Reports: []FileReport{
			{Path: "z.c"}, {Path: "a.c"},
		},
	}

	bundle.SortByPath()

	assert.Equal(t, "a.c", bundle.Files[0].Path)
	assert.Equal(t, "a.c", bundle.Reports[0].Path)
}
