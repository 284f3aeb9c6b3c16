// Package match pairs submission files to reference files by relative path
// and classifies each pairing.
package match

import (
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/edutools/fbgen/internal/domain"
)

// Snapshot is a tree of files presented as a relative-path to text mapping.
// Unreadable declares paths that exist in the tree but could not be read;
// these surface as per-file IO errors without aborting the run.
type Snapshot struct {
	Files      map[string]string
	Unreadable map[string]error
}

// Options controls which paths participate in matching.
type Options struct {
	// Include holds doublestar patterns; empty means every path.
	Include []string
	// Exclude holds doublestar patterns applied after Include.
	Exclude []string
}

// Result carries the classified records plus per-path IO errors.
type Result struct {
	Records []domain.FileRecord
	Errors  []*domain.Error
}

// Match emits one FileRecord for every path present in either tree.
// Classification: only in submission -> added-only; only in reference ->
// removed-only; both and identical -> unchanged; both and differing ->
// modified. Records are sorted by path.
func Match(reference, submission Snapshot, opts Options) Result {
	paths := make(map[string]bool)
	for p := range reference.Files {
		paths[p] = true
	}
	for p := range submission.Files {
		paths[p] = true
	}
	for p := range reference.Unreadable {
		paths[p] = true
	}
	for p := range submission.Unreadable {
		paths[p] = true
	}

	var result Result
	for path := range paths {
		if !selected(path, opts) {
			continue
		}

		if err, ok := submission.Unreadable[path]; ok {
			result.Errors = append(result.Errors, domain.NewError(domain.ErrKindIO, path, err))
			continue
		}
		if err, ok := reference.Unreadable[path]; ok {
			result.Errors = append(result.Errors, domain.NewError(domain.ErrKindIO, path, err))
			continue
		}

		source, inRef := reference.Files[path]
		target, inSub := submission.Files[path]

		record := domain.FileRecord{RelPath: path}
		switch {
		case inRef && inSub && source == target:
			record.Classification = domain.ClassUnchanged
			record.SourceText = source
			record.TargetText = target
		case inRef && inSub:
			record.Classification = domain.ClassModified
			record.SourceText = source
			record.TargetText = target
		case inSub:
			record.Classification = domain.ClassAddedOnly
			record.TargetText = target
		default:
			record.Classification = domain.ClassRemovedOnly
			record.SourceText = source
		}
		result.Records = append(result.Records, record)
	}

	sort.Slice(result.Records, func(i, j int) bool {
		return result.Records[i].RelPath < result.Records[j].RelPath
	})
	sort.Slice(result.Errors, func(i, j int) bool {
		return result.Errors[i].File < result.Errors[j].File
	})

	return result
}

// Reviewable filters records down to the classifications that flow into
// feedback generation. Unchanged files produce no comments; removed-only
// files have nothing to annotate.
func Reviewable(records []domain.FileRecord) []domain.FileRecord {
	out := make([]domain.FileRecord, 0, len(records))
	for _, r := range records {
		if r.Classification == domain.ClassModified || r.Classification == domain.ClassAddedOnly {
			out = append(out, r)
		}
	}
	return out
}

func selected(path string, opts Options) bool {
	if len(opts.Include) > 0 {
		matched := false
		for _, pattern := range opts.Include {
			if ok, err := doublestar.Match(pattern, path); err == nil && ok {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, pattern := range opts.Exclude {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return false
		}
	}
	return true
}
