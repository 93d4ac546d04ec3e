package multikueue

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apimeta "k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	utilrand "k8s.io/apimachinery/pkg/util/rand"
	"k8s.io/utils/ptr"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"
	kueue "sigs.k8s.io/kueue/apis/kueue/v1beta1"
	"sigs.k8s.io/kueue/pkg/controller/constants"
	kueueworkload "sigs.k8s.io/kueue/pkg/workload"

	v1alpha1 "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/apis/sandbox/v1alpha1"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/k8s/readiness"
)

const (
	verifyJobPrefix   = "dispatch-check-"
	verifyJobSuffix   = 5
	verifyJobImage    = "busybox:1.37"
	verifyJobCPU      = "1"
	verifyJobMemory   = "150Mi"
	verifyJobRunInSec = 2
)

var (
	// ErrReservationNotParsed is returned when the admission check message
	// does not name the worker holding the reservation.
	ErrReservationNotParsed = errors.New("could not determine reserving worker from admission check")
	// ErrUnknownWorker is returned when the reserving worker is not part of
	// the sandbox.
	ErrUnknownWorker = errors.New("reserving worker is not a sandbox worker")
	// ErrWorkloadNotFound is returned when no Workload appears for the
	// submitted job.
	ErrWorkloadNotFound = errors.New("no workload found for dispatch job")
)

// reservationPattern matches Kueue's MultiKueue admission message, e.g.
// `The workload got reservation on "worker1"`.
var reservationPattern = regexp.MustCompile(`reservation on "([^"]+)"`)

// VerifyOptions controls a dispatch verification run.
type VerifyOptions struct {
	// JobName overrides the generated job name.
	JobName string
	// KeepJob retains the job after the run instead of deleting it.
	KeepJob bool
	// Timeout bounds each wait phase of the run.
	Timeout time.Duration
}

// VerifyResult reports where the dispatch landed and how long it took.
type VerifyResult struct {
	JobName string
	Worker  string
	Elapsed time.Duration
}

// Verifier submits a queued job on the manager and follows it through
// MultiKueue admission to completion on a worker.
type Verifier struct {
	manager ctrlclient.Client
	workers map[string]ctrlclient.Client
	queue   v1alpha1.QueueSpec
}

// NewVerifier creates a Verifier. The workers map is keyed by worker cluster
// name as registered in the MultiKueueConfig.
func NewVerifier(
	manager ctrlclient.Client,
	workers map[string]ctrlclient.Client,
	queue v1alpha1.QueueSpec,
) *Verifier {
	return &Verifier{manager: manager, workers: workers, queue: queue}
}

// Run submits the job and waits for reservation, worker placement, and
// completion. The job is deleted afterwards unless KeepJob is set.
func (v *Verifier) Run(ctx context.Context, opts VerifyOptions) (*VerifyResult, error) {
	start := time.Now()

	jobName := opts.JobName
	if jobName == "" {
		jobName = verifyJobPrefix + utilrand.String(verifyJobSuffix)
	}

	job := v.buildJob(jobName)

	err := v.manager.Create(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("submit dispatch job: %w", err)
	}

	if !opts.KeepJob {
		defer v.cleanupJob(ctx, job)
	}

	workerName, err := v.waitForReservation(ctx, job, opts.Timeout)
	if err != nil {
		return nil, err
	}

	workerClient, ok := v.workers[workerName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorker, workerName)
	}

	err = v.waitForJobOnWorker(ctx, workerClient, jobName, opts.Timeout)
	if err != nil {
		return nil, err
	}

	err = v.waitForCompletion(ctx, job, opts.Timeout)
	if err != nil {
		return nil, err
	}

	return &VerifyResult{
		JobName: jobName,
		Worker:  workerName,
		Elapsed: time.Since(start),
	}, nil
}

func (v *Verifier) buildJob(name string) *batchv1.Job {
	return &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: v.queue.Namespace,
			Labels: map[string]string{
				constants.QueueLabel: v.queue.LocalQueue,
			},
		},
		Spec: batchv1.JobSpec{
			// Created suspended; Kueue unsuspends once quota is reserved.
			Suspend:      ptr.To(true),
			ManagedBy:    ptr.To(kueue.MultiKueueControllerName),
			BackoffLimit: ptr.To(int32(0)),
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{
					RestartPolicy: corev1.RestartPolicyNever,
					Containers: []corev1.Container{{
						Name:    "main",
						Image:   verifyJobImage,
						Command: []string{"sh", "-c", fmt.Sprintf("sleep %d", verifyJobRunInSec)},
						Resources: corev1.ResourceRequirements{
							Requests: corev1.ResourceList{
								corev1.ResourceCPU:    resource.MustParse(verifyJobCPU),
								corev1.ResourceMemory: resource.MustParse(verifyJobMemory),
							},
						},
					}},
				},
			},
		},
	}
}

// waitForReservation polls the job's Workload on the manager until the
// MultiKueue admission check reports a reservation, then returns the worker
// named in the check message.
func (v *Verifier) waitForReservation(
	ctx context.Context,
	job *batchv1.Job,
	timeout time.Duration,
) (string, error) {
	workerName := ""

	err := readiness.PollForReadiness(ctx, timeout, func(ctx context.Context) (bool, error) {
		workload, findErr := v.findWorkload(ctx, job)
		if findErr != nil || workload == nil {
			return false, nil
		}

		state := kueueworkload.FindAdmissionCheck(
			workload.Status.AdmissionChecks,
			kueue.AdmissionCheckReference(AdmissionCheckName),
		)
		if state == nil {
			return false, nil
		}

		name, parseErr := ParseReservationWorker(state.Message)
		if parseErr != nil {
			return false, nil
		}

		workerName = name

		return true, nil
	})
	if err != nil {
		return "", fmt.Errorf("wait for workload reservation: %w", err)
	}

	return workerName, nil
}

// findWorkload locates the Workload Kueue created for the job, matching on
// the job UID label.
func (v *Verifier) findWorkload(
	ctx context.Context,
	job *batchv1.Job,
) (*kueue.Workload, error) {
	workloads := &kueue.WorkloadList{}

	err := v.manager.List(
		ctx,
		workloads,
		ctrlclient.InNamespace(v.queue.Namespace),
		ctrlclient.MatchingLabels{constants.JobUIDLabel: string(job.UID)},
	)
	if err != nil {
		return nil, err
	}

	if len(workloads.Items) == 0 {
		return nil, ErrWorkloadNotFound
	}

	return &workloads.Items[0], nil
}

func (v *Verifier) waitForJobOnWorker(
	ctx context.Context,
	worker ctrlclient.Client,
	jobName string,
	timeout time.Duration,
) error {
	key := types.NamespacedName{Namespace: v.queue.Namespace, Name: jobName}

	err := readiness.PollForReadiness(ctx, timeout, func(ctx context.Context) (bool, error) {
		remoteJob := &batchv1.Job{}

		getErr := worker.Get(ctx, key, remoteJob)

		return getErr == nil, nil
	})
	if err != nil {
		return fmt.Errorf("wait for job on worker: %w", err)
	}

	return nil
}

// waitForCompletion waits until the manager's Workload reports Finished,
// which MultiKueue syncs back from the worker.
func (v *Verifier) waitForCompletion(
	ctx context.Context,
	job *batchv1.Job,
	timeout time.Duration,
) error {
	err := readiness.PollForReadiness(ctx, timeout, func(ctx context.Context) (bool, error) {
		workload, findErr := v.findWorkload(ctx, job)
		if findErr != nil || workload == nil {
			return false, nil
		}

		finished := apimeta.IsStatusConditionTrue(
			workload.Status.Conditions, kueue.WorkloadFinished,
		)

		return finished, nil
	})
	if err != nil {
		return fmt.Errorf("wait for job completion: %w", err)
	}

	return nil
}

func (v *Verifier) cleanupJob(ctx context.Context, job *batchv1.Job) {
	propagation := metav1.DeletePropagationForeground

	_ = v.manager.Delete(ctx, job, &ctrlclient.DeleteOptions{
		PropagationPolicy: &propagation,
	})
}

// ParseReservationWorker extracts the worker cluster name from a MultiKueue
// admission check message.
func ParseReservationWorker(message string) (string, error) {
	matches := reservationPattern.FindStringSubmatch(message)
	if len(matches) != 2 {
		return "", fmt.Errorf("%w: %q", ErrReservationNotParsed, message)
	}

	return matches[1], nil
}
