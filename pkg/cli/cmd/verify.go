package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/notify"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/timer"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/svc/multikueue"
)

// timerResolution rounds reported elapsed times for readability.
const timerResolution = 100 * time.Millisecond

// NewVerifyCmd creates the verify command that smoke-tests dispatch.
func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Submit a test job and verify it dispatches to a worker",
		Long: "Submit a suspended job to the manager's queue, follow it through " +
			"MultiKueue admission, and confirm it runs to completion on a worker.",
		RunE:         handleVerifyRunE,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("keep", false, "Keep the test job instead of deleting it afterwards")
	cmd.Flags().String("job-name", "", "Name for the test job (generated when empty)")

	return cmd
}

func handleVerifyRunE(cmd *cobra.Command, _ []string) error {
	tmr := timer.New()
	tmr.Start()

	out := cmd.OutOrStdout()
	notify.Titlef(out, "🧪", "Verify dispatch...")

	env, err := loadSandbox(cmd, tmr)
	if err != nil {
		return err
	}

	keep, err := cmd.Flags().GetBool("keep")
	if err != nil {
		return fmt.Errorf("failed to read keep flag: %w", err)
	}

	jobName, err := cmd.Flags().GetString("job-name")
	if err != nil {
		return fmt.Errorf("failed to read job-name flag: %w", err)
	}

	manager, err := env.newManagerClient()
	if err != nil {
		return err
	}

	workers, err := env.workerClientMap()
	if err != nil {
		return err
	}

	tmr.NewStage()
	notify.Activityf(out, "submitting test job to queue '%s'", env.sandbox.Spec.Queue.LocalQueue)

	verifier := multikueue.NewVerifier(manager, workers, env.sandbox.Spec.Queue)

	result, err := verifier.Run(cmd.Context(), multikueue.VerifyOptions{
		JobName: jobName,
		KeepJob: keep,
		Timeout: env.sandbox.Spec.Connection.Timeout.Duration,
	})
	if err != nil {
		return fmt.Errorf("dispatch verification failed: %w", err)
	}

	notify.Infof(out, "job '%s' ran on worker '%s'", result.JobName, result.Worker)
	notify.SuccessWithTimerf(out, tmr, "dispatch verified in %s", result.Elapsed.Round(timerResolution))

	return nil
}
