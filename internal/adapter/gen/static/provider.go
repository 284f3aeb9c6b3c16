// Package static implements a deterministic offline generation
// collaborator. The proposer stage drafts nothing, the reviewer echoes the
// candidates it was given, and the summarizer returns a fixed assessment,
// so full pipeline runs work without network access.
package static

import (
	"context"
	"regexp"
	"strings"

	"github.com/edutools/fbgen/internal/usecase/feedback"
)

var candidatesSection = regexp.MustCompile(`(?s)<candidates>\s*(.*?)\s*</candidates>`)

// Provider implements the feedback.Generator port without external calls.
type Provider struct{}

// NewProvider constructs a static Provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Generate returns a canned response for the requested role.
func (p *Provider) Generate(_ context.Context, req feedback.GenerationRequest) (feedback.GenerationResponse, error) {
	switch req.Role {
	case feedback.RoleReviewer:
		// Accept every candidate unchanged.
		payload := `{"comments": [], "note": "static review, all candidates kept"}`
		if m := candidatesSection.FindStringSubmatch(req.Prompt); m != nil && strings.HasPrefix(m[1], "{") {
			payload = m[1]
		}
		return feedback.GenerationResponse{Text: payload}, nil
	case feedback.RoleSummarizer:
		return feedback.GenerationResponse{
			Text: `{"strengths": "Static run, no assessment available.", "areas_for_improvement": "Static run, no assessment available.", "overall_assessment": "Generated offline by the static provider."}`,
		}, nil
	default:
		return feedback.GenerationResponse{Text: `{"comments": []}`}, nil
	}
}
