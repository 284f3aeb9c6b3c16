// Package diff turns a pair of file texts into an ordered sequence of
// line-level hunks anchored to original-file line numbers.
//
// The longest-common-subsequence edit script itself comes from go-diff's
// line-mode diff; this package is the adapter that collapses the raw
// script into domain.DiffHunk records with 1-based, contiguous numbering
// on both sides. Hunks are totally ordered and cover the target file with
// no gaps or overlaps.
package diff
