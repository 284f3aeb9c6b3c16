package feedback

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/edutools/fbgen/internal/domain"
)

// fencedJSON matches a markdown-fenced JSON block. Greedy so nested fences
// inside string values do not cut the payload short.
var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*)\\s*```")

// extractJSON pulls the JSON payload out of a generation response. Models
// often wrap JSON in markdown fences or surround it with prose; take the
// fenced block when present, otherwise the outermost braced region.
func extractJSON(raw string) string {
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}

	start := strings.IndexAny(raw, "{[")
	end := strings.LastIndexAny(raw, "}]")
	if start >= 0 && end > start {
		return strings.TrimSpace(raw[start : end+1])
	}
	return strings.TrimSpace(raw)
}

type commentsPayload struct {
	Comments []domain.Comment `json:"comments"`
	Note     string           `json:"note"`
}

// ParseComments decodes a proposer response into candidate comments. The
// payload is either {"comments": [...]} or a bare array. file and origin
// are stamped onto every comment; confidence is clamped to [0, 1].
func ParseComments(raw, file, origin string) ([]domain.Comment, error) {
	payload := extractJSON(raw)

	var wrapped commentsPayload
	if err := json.Unmarshal([]byte(payload), &wrapped); err != nil {
		var bare []domain.Comment
		if bareErr := json.Unmarshal([]byte(payload), &bare); bareErr != nil {
			return nil, domain.NewError(domain.ErrKindGenerationParse, file,
				fmt.Errorf("decode comments: %w", err))
		}
		wrapped.Comments = bare
	}

	return normalize(wrapped.Comments, file, origin), nil
}

// ParseReview decodes a reviewer response: the accepted comment set plus the
// free-text quality note.
func ParseReview(raw, file string) ([]domain.Comment, string, error) {
	payload := extractJSON(raw)

	var wrapped commentsPayload
	if err := json.Unmarshal([]byte(payload), &wrapped); err != nil {
		return nil, "", domain.NewError(domain.ErrKindGenerationParse, file,
			fmt.Errorf("decode review: %w", err))
	}

	return normalize(wrapped.Comments, file, domain.OriginProposer), wrapped.Note, nil
}

// ParseSummary decodes the summarizer response.
func ParseSummary(raw string) (domain.Summary, error) {
	var summary domain.Summary
	if err := json.Unmarshal([]byte(extractJSON(raw)), &summary); err != nil {
		return domain.Summary{}, domain.NewError(domain.ErrKindSummarization, "",
			fmt.Errorf("decode summary: %w", err))
	}
	return summary, nil
}

func normalize(comments []domain.Comment, file, origin string) []domain.Comment {
	out := make([]domain.Comment, 0, len(comments))
	for _, c := range comments {
		if strings.TrimSpace(c.Body) == "" || c.TargetLine < 1 {
			continue
		}
		c.File = file
		if c.Origin == "" {
			c.Origin = origin
		}
		if c.Category == "" {
			c.Category = "general"
		}
		if c.Confidence < 0 {
			c.Confidence = 0
		}
		if c.Confidence > 1 {
			c.Confidence = 1
		}
		out = append(out, c)
	}
	return out
}

// RetagEdited marks accepted comments whose body the reviewer changed.
// Bodies that survive verbatim keep their proposer origin.
func RetagEdited(candidates, accepted []domain.Comment) []domain.Comment {
	verbatim := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		verbatim[c.Body] = true
	}

	out := make([]domain.Comment, len(accepted))
	for i, c := range accepted {
		if !verbatim[c.Body] {
			c.Origin = domain.OriginReviewer
		}
		out[i] = c
	}
	return out
}
