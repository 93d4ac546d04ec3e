// Package main is the entry point for the mksandbox application.
package main

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/k8s-sandbox-labs/multikueue-sandbox/internal/buildmeta"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cli/cmd"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/notify"
)

func main() {
	exitCode := runSafely(os.Args[1:], runWithArgs, os.Stderr)

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

//nolint:nonamedreturns // Named return simplifies panic recovery logic.
func runSafely(args []string, runner func([]string) int, errWriter io.Writer) (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			panicMessage := fmt.Sprintf("panic recovered: %v\n%s", r, debug.Stack())
			notify.Errorf(errWriter, "%s", panicMessage)

			exitCode = 1
		}
	}()

	exitCode = runner(args)

	return exitCode
}

func runWithArgs(args []string) int {
	rootCmd := cmd.NewRootCmd(buildmeta.Version, buildmeta.Commit, buildmeta.Date)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	if err != nil {
		notify.Errorf(rootCmd.ErrOrStderr(), "%v", err)

		return 1
	}

	return 0
}
