// Package runner executes cobra commands from other tools (kind, k3d) while
// capturing their output.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Result holds the output captured from a command execution.
type Result struct {
	Stdout string
	Stderr string
}

// CommandRunner runs a cobra command with the given arguments.
type CommandRunner interface {
	Run(ctx context.Context, cmd *cobra.Command, args []string) (Result, error)
}

// CobraCommandRunner executes cobra commands, teeing their output to the
// configured writers while also capturing it for the caller.
type CobraCommandRunner struct {
	stdout io.Writer
	stderr io.Writer
}

// NewCobraCommandRunner creates a runner writing to the given streams.
// Nil writers default to os.Stdout and os.Stderr.
func NewCobraCommandRunner(stdout, stderr io.Writer) *CobraCommandRunner {
	if stdout == nil {
		stdout = os.Stdout
	}

	if stderr == nil {
		stderr = os.Stderr
	}

	return &CobraCommandRunner{stdout: stdout, stderr: stderr}
}

// Run executes the command with args and returns captured output.
func (r *CobraCommandRunner) Run(
	ctx context.Context,
	cmd *cobra.Command,
	args []string,
) (Result, error) {
	var outBuf, errBuf bytes.Buffer

	cmd.SetOut(io.MultiWriter(r.stdout, &outBuf))
	cmd.SetErr(io.MultiWriter(r.stderr, &errBuf))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)

	result := Result{Stdout: outBuf.String(), Stderr: errBuf.String()}

	if err != nil {
		return result, fmt.Errorf("execute %s command: %w", cmd.Name(), err)
	}

	return result, nil
}
