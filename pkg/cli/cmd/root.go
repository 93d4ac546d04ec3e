// Package cmd builds the mksandbox command tree.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	cluster "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cli/cmd/cluster"
)

// NewRootCmd creates and returns the root command with version info and subcommands.
func NewRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mksandbox",
		Short: "mksandbox stands up throwaway MultiKueue environments in Docker",
		Long: "mksandbox creates a manager cluster and one or more worker clusters " +
			"in Docker (kind or k3d), installs Kueue on each, wires MultiKueue " +
			"between them, and verifies that jobs dispatch to workers.",
		RunE:         handleRootRunE,
		SilenceUsage: true,
	}

	cmd.Version = fmt.Sprintf("%s (Built on %s from Git SHA %s)", version, date, commit)

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewUpCmd())
	cmd.AddCommand(NewConnectCmd())
	cmd.AddCommand(NewVerifyCmd())
	cmd.AddCommand(NewDownCmd())
	cmd.AddCommand(cluster.NewClusterCmd())

	return cmd
}

func handleRootRunE(cmd *cobra.Command, _ []string) error {
	// The err can safely be ignored, as it can never fail at runtime.
	_ = cmd.Help()

	return nil
}
