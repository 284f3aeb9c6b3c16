package cli_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/edutools/fbgen/internal/adapter/cli"
)

type runnerStub struct {
	repoReq   cli.RepoRequest
	singleReq cli.SingleRequest
	outcome   cli.Outcome
	err       error
}

func (r *runnerStub) RunRepo(ctx context.Context, req cli.RepoRequest) (cli.Outcome, error) {
	r.repoReq = req
	return r.outcome, r.err
}

func (r *runnerStub) RunSingle(ctx context.Context, req cli.SingleRequest) (cli.Outcome, error) {
	r.singleReq = req
	return r.outcome, r.err
}

func TestRepoCommandInvokesRunner(t *testing.T) {
	stub := &runnerStub{outcome: cli.Outcome{OutputDir: "build", Files: 3, Succeeded: 3}}
	root := cli.NewRootCommand(cli.Dependencies{
		Runner:         stub,
		Args:           cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
		DefaultOutput:  "build",
		DefaultWorkers: 4,
		Version:        "v1.2.3",
	})

	root.SetArgs([]string{"repo", "ref", "sub", "--reference-rev", "v1.0"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if stub.repoReq.ReferenceDir != "ref" {
		t.Fatalf("expected reference dir ref, got %s", stub.repoReq.ReferenceDir)
	}
	if stub.repoReq.SubmissionDir != "sub" {
		t.Fatalf("expected submission dir sub, got %s", stub.repoReq.SubmissionDir)
	}
	if stub.repoReq.ReferenceRev != "v1.0" {
		t.Fatalf("expected reference rev v1.0, got %s", stub.repoReq.ReferenceRev)
	}
	if stub.repoReq.OutputDir != "build" {
		t.Fatalf("expected default output dir build, got %s", stub.repoReq.OutputDir)
	}
	if stub.repoReq.Workers != 4 {
		t.Fatalf("expected default workers 4, got %d", stub.repoReq.Workers)
	}
}

func TestRepoCommandOverridesDefaults(t *testing.T) {
	stub := &runnerStub{}
	root := cli.NewRootCommand(cli.Dependencies{
		Runner:         stub,
		Args:           cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
		DefaultOutput:  "out",
		DefaultWorkers: 4,
		Version:        "v1.2.3",
	})

	root.SetArgs([]string{"repo", "ref", "sub", "--output", "graded", "--workers", "8"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if stub.repoReq.OutputDir != "graded" {
		t.Fatalf("expected output dir graded, got %s", stub.repoReq.OutputDir)
	}
	if stub.repoReq.Workers != 8 {
		t.Fatalf("expected workers 8, got %d", stub.repoReq.Workers)
	}
}

func TestRepoCommandRequiresBothDirs(t *testing.T) {
	stub := &runnerStub{}
	root := cli.NewRootCommand(cli.Dependencies{
		Runner:  stub,
		Args:    cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
		Version: "v1.2.3",
	})

	root.SetArgs([]string{"repo", "only-one"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected argument error for missing submission dir")
	}
}

func TestSingleCommandInvokesRunner(t *testing.T) {
	stub := &runnerStub{outcome: cli.Outcome{OutputDir: "out", Files: 1, Succeeded: 1}}
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Runner:  stub,
		Args:    cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		Version: "v1.2.3",
	})

	root.SetArgs([]string{"single", "main.c"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if stub.singleReq.FilePath != "main.c" {
		t.Fatalf("expected file main.c, got %s", stub.singleReq.FilePath)
	}
	if !strings.Contains(buf.String(), "annotated 1 of 1 files") {
		t.Fatalf("expected outcome summary, got %q", buf.String())
	}
}

func TestPartialRunStillPrintsOutcome(t *testing.T) {
	stub := &runnerStub{
		outcome: cli.Outcome{OutputDir: "out", Files: 3, Succeeded: 2, Failed: 1},
		err:     cli.ErrPartialRun,
	}
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Runner:  stub,
		Args:    cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		Version: "v1.2.3",
	})

	root.SetArgs([]string{"repo", "ref", "sub"})
	err := root.Execute()
	if !errors.Is(err, cli.ErrPartialRun) {
		t.Fatalf("expected partial-run sentinel, got %v", err)
	}
	if !strings.Contains(buf.String(), "failed 1") {
		t.Fatalf("expected failure count in summary, got %q", buf.String())
	}
}

func TestVersionFlagEmitsVersion(t *testing.T) {
	stub := &runnerStub{}
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Runner:  stub,
		Args:    cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		Version: "v9.9.9",
	})

	root.SetArgs([]string{"--version"})
	err := root.Execute()
	if !errors.Is(err, cli.ErrVersionRequested) {
		t.Fatalf("expected version sentinel, got %v", err)
	}
	if strings.TrimSpace(buf.String()) != "v9.9.9" {
		t.Fatalf("unexpected version output: %q", buf.String())
	}
}
