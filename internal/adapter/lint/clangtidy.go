// Package lint runs an external static analyzer and returns its raw
// diagnostic output.
package lint

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner invokes a clang-tidy style analyzer binary. The analyzer's output
// is returned as-is; parsing into structured diagnostics happens in the
// feedback use case.
type Runner struct {
	command string
	args    []string
}

// NewRunner creates a runner for the given analyzer command. Extra args are
// passed before the file path.
func NewRunner(command string, args ...string) *Runner {
	return &Runner{command: command, args: args}
}

// Analyze runs the analyzer on one file. A nonzero exit with diagnostics on
// stdout is normal analyzer behavior, not an error; the call fails only
// when the analyzer cannot run at all.
func (r *Runner) Analyze(ctx context.Context, path string) (string, error) {
	args := append(append([]string{}, r.args...), path)
	cmd := exec.CommandContext(ctx, r.command, args...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return stdout.String(), nil
		}
		return "", fmt.Errorf("running %q: %w", r.command, err)
	}

	return stdout.String(), nil
}
