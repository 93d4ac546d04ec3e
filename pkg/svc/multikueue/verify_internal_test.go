package multikueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"
	kueue "sigs.k8s.io/kueue/apis/kueue/v1beta1"
	"sigs.k8s.io/kueue/pkg/controller/constants"

	v1alpha1 "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/apis/sandbox/v1alpha1"
)

func TestParseReservationWorker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		want    string
		wantErr bool
	}{
		{
			name:    "standard reservation message",
			message: `The workload got reservation on "worker1"`,
			want:    "worker1",
		},
		{
			name:    "other worker",
			message: `The workload got reservation on "worker2"`,
			want:    "worker2",
		},
		{
			name:    "admitted message without reservation",
			message: "The workload is admitted",
			wantErr: true,
		},
		{
			name:    "empty message",
			message: "",
			wantErr: true,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			worker, err := ParseReservationWorker(testCase.message)

			if testCase.wantErr {
				require.ErrorIs(t, err, ErrReservationNotParsed)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, testCase.want, worker)
		})
	}
}

func TestBuildJobShape(t *testing.T) {
	t.Parallel()

	verifier := &Verifier{queue: v1alpha1.QueueSpec{
		Namespace:  "team-a",
		LocalQueue: "user-queue",
	}}

	job := verifier.buildJob("dispatch-check-abcde")

	assert.Equal(t, "team-a", job.Namespace)
	assert.Equal(t, "user-queue", job.Labels[constants.QueueLabel])
	assert.Equal(t, ptr.To(true), job.Spec.Suspend)
	assert.Equal(t, ptr.To(kueue.MultiKueueControllerName), job.Spec.ManagedBy)
	require.Len(t, job.Spec.Template.Spec.Containers, 1)
	assert.NotEmpty(t, job.Spec.Template.Spec.Containers[0].Resources.Requests)
}
