package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// ErrPartialRun indicates the run produced output but some files were
// dropped or failed. The host process maps this to a distinct exit code so
// grading scripts can tell a degraded run from a clean one.
var ErrPartialRun = errors.New("run completed with failures")

// RepoRequest describes a repository-pair run.
type RepoRequest struct {
	ReferenceDir  string
	SubmissionDir string
	ReferenceRev  string
	OutputDir     string
	Workers       int
}

// SingleRequest describes a single-file run.
type SingleRequest struct {
	FilePath  string
	OutputDir string
	Workers   int
}

// Outcome summarizes what a run produced, for the CLI to report.
type Outcome struct {
	OutputDir string
	Files     int
	Succeeded int
	Skipped   int
	Failed    int
}

// Runner defines the dependency required to run the feedback commands.
type Runner interface {
	RunRepo(ctx context.Context, req RepoRequest) (Outcome, error)
	RunSingle(ctx context.Context, req SingleRequest) (Outcome, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Runner         Runner
	Args           Arguments
	DefaultOutput  string
	DefaultWorkers int
	Version        string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "fbgen",
		Short: "Generate annotated feedback for student submissions",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(repoCommand(deps.Runner, deps.DefaultOutput, deps.DefaultWorkers))
	root.AddCommand(singleCommand(deps.Runner, deps.DefaultOutput, deps.DefaultWorkers))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func repoCommand(runner Runner, defaultOutput string, defaultWorkers int) *cobra.Command {
	var referenceRev string
	var outputDir string
	var workers int

	cmd := &cobra.Command{
		Use:   "repo <reference-dir> <submission-dir>",
		Short: "Compare a submission tree against a reference tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if runner == nil {
				return fmt.Errorf("runner is not configured")
			}
			req := RepoRequest{
				ReferenceDir:  args[0],
				SubmissionDir: args[1],
				ReferenceRev:  referenceRev,
				OutputDir:     outputDir,
				Workers:       workers,
			}
			printProgress(cmd, fmt.Sprintf("comparing %s against %s", req.SubmissionDir, req.ReferenceDir))
			outcome, err := runner.RunRepo(cmd.Context(), req)
			printOutcome(cmd, outcome, err)
			return err
		},
	}

	cmd.Flags().StringVar(&referenceRev, "reference-rev", "", "Git revision of the reference to compare against (uses the working tree when empty)")
	addRunFlags(cmd, &outputDir, &workers, defaultOutput, defaultWorkers)
	return cmd
}

func singleCommand(runner Runner, defaultOutput string, defaultWorkers int) *cobra.Command {
	var outputDir string
	var workers int

	cmd := &cobra.Command{
		Use:   "single <file>",
		Short: "Generate feedback for a single file without a reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if runner == nil {
				return fmt.Errorf("runner is not configured")
			}
			req := SingleRequest{
				FilePath:  args[0],
				OutputDir: outputDir,
				Workers:   workers,
			}
			printProgress(cmd, fmt.Sprintf("reviewing %s", req.FilePath))
			outcome, err := runner.RunSingle(cmd.Context(), req)
			printOutcome(cmd, outcome, err)
			return err
		},
	}

	addRunFlags(cmd, &outputDir, &workers, defaultOutput, defaultWorkers)
	return cmd
}

func addRunFlags(cmd *cobra.Command, outputDir *string, workers *int, defaultOutput string, defaultWorkers int) {
	if defaultOutput == "" {
		defaultOutput = "out"
	}
	if defaultWorkers <= 0 {
		defaultWorkers = 4
	}
	cmd.Flags().StringVar(outputDir, "output", defaultOutput, "Directory to write annotated files and the run report")
	cmd.Flags().IntVar(workers, "workers", defaultWorkers, "Number of files to process concurrently")
}

// printProgress writes a status line to stderr, but only when stderr is an
// interactive terminal. Redirected runs stay clean for log capture.
func printProgress(cmd *cobra.Command, message string) {
	w := cmd.ErrOrStderr()
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return
	}
	_, _ = fmt.Fprintf(w, "fbgen: %s\n", message)
}

func printOutcome(cmd *cobra.Command, outcome Outcome, err error) {
	if err != nil && !errors.Is(err, ErrPartialRun) {
		return
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "annotated %d of %d files (skipped %d, failed %d); output in %s\n",
		outcome.Succeeded, outcome.Files, outcome.Skipped, outcome.Failed, outcome.OutputDir)
}
