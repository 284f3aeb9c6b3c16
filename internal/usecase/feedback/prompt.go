package feedback

import (
	"fmt"
	"strings"
	"text/template"
)

// Generation roles. The generation collaborator receives the role alongside
// the prompt so adapters can vary system instructions per stage.
const (
	RoleProposer   = "proposer"
	RoleReviewer   = "reviewer"
	RoleSummarizer = "summarizer"
)

// PromptBuilder renders the prompts for the three generation roles. Rubric
// and ProblemStatement are shared by every prompt of a run.
type PromptBuilder struct {
	Rubric           string
	ProblemStatement string
}

const commonPreamble = `You are reviewing a student's programming assignment submission.

<problem_statement>
{{.Problem}}
</problem_statement>

<rubric>
{{.Rubric}}
</rubric>

The student's changes to {{.File}} are shown below. Lines marked "+ " were
added or modified by the student; unmarked lines are unchanged context and
"..." marks elided regions. Line numbers refer to the student's file.

<code>
{{.Code}}
</code>
`

var proposerTmpl = template.Must(template.New("proposer").Parse(commonPreamble + `
Propose line-anchored review comments on the student's changes. Focus on
correctness, clarity, and rubric criteria. Do not comment on unchanged
context lines.

Respond with only a JSON object of this shape:
{"comments": [{"file": "{{.File}}", "line": <1-based line number>, "snippet": "<exact text of that line>", "body": "<the comment>", "category": "<short category>", "confidence": <0.0-1.0>}]}
`))

var reviewerTmpl = template.Must(template.New("reviewer").Parse(commonPreamble + `
A first-pass reviewer proposed the comments below. Critique them: keep the
useful ones (editing their wording where it helps), drop duplicates,
low-value remarks, and anything out of scope for the rubric.

<candidates>
{{.Candidates}}
</candidates>
{{if .LintSummary}}
A static analyzer reported the following on this file:

<analysis>
{{.LintSummary}}
</analysis>
{{end}}
Respond with only a JSON object of this shape:
{"comments": [<the accepted comments, same shape as the candidates>], "note": "<one sentence on overall submission quality>"}
`))

var summaryTmpl = template.Must(template.New("summary").Parse(`You reviewed a student's programming assignment. The accepted review
comments were:

{{.Digest}}

Write an overall assessment of the submission. Respond with only a JSON
object of this shape:
{"strengths": "...", "areas_for_improvement": "...", "overall_assessment": "..."}
`))

type promptData struct {
	Problem     string
	Rubric      string
	File        string
	Code        string
	Candidates  string
	LintSummary string
	Digest      string
}

// Proposer renders the first-stage prompt for one file's context block.
func (p PromptBuilder) Proposer(block ContextBlock) (string, error) {
	return render(proposerTmpl, promptData{
		Problem: p.ProblemStatement,
		Rubric:  p.Rubric,
		File:    block.File,
		Code:    block.Rendered,
	})
}

// Reviewer renders the critique prompt: the same context block plus the
// proposer's candidate JSON and, when present, a linter summary.
func (p PromptBuilder) Reviewer(block ContextBlock, candidatesJSON, lintSummary string) (string, error) {
	return render(reviewerTmpl, promptData{
		Problem:     p.ProblemStatement,
		Rubric:      p.Rubric,
		File:        block.File,
		Code:        block.Rendered,
		Candidates:  candidatesJSON,
		LintSummary: lintSummary,
	})
}

// Summary renders the end-of-run summarization prompt from the accepted
// comment digest.
func (p PromptBuilder) Summary(digest string) (string, error) {
	return render(summaryTmpl, promptData{Digest: digest})
}

// LintDigest renders the prompt that condenses raw analyzer output before it
// is embedded in the reviewer prompt.
func (p PromptBuilder) LintDigest(raw string) string {
	return fmt.Sprintf(`Summarize the following static-analysis output in a few plain sentences,
keeping file and line references:

%s`, raw)
}

func render(tmpl *template.Template, data promptData) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", tmpl.Name(), err)
	}
	return b.String(), nil
}
