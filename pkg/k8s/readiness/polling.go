// Package readiness provides Kubernetes resource readiness polling utilities.
//
// It replaces fixed sleeps with condition polling: deployments, the API
// server, and Kueue's MultiKueue resources are all waited on through a
// shared polling mechanism built on apimachinery's wait helpers.
package readiness

import (
	"context"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// pollInterval is the delay between readiness probes.
const pollInterval = 2 * time.Second

// PollForReadiness polls the condition until it reports ready, the deadline
// passes, or the context is cancelled. The condition follows the
// apimachinery convention: return (true, nil) when ready, (false, nil) to
// keep polling, or a non-nil error to abort.
func PollForReadiness(
	ctx context.Context,
	deadline time.Duration,
	condition wait.ConditionWithContextFunc,
) error {
	err := wait.PollUntilContextTimeout(ctx, pollInterval, deadline, true, condition)
	if err != nil {
		if wait.Interrupted(err) {
			return fmt.Errorf("%w after %s", ErrTimeoutExceeded, deadline)
		}

		return fmt.Errorf("poll for readiness: %w", err)
	}

	return nil
}
