package helm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeValuesParsesYaml(t *testing.T) {
	t.Parallel()

	vals, err := mergeValues(&ChartSpec{
		ValuesYaml: "manageJobsWithoutQueueName: false\ncontrollerManager:\n  replicas: 1\n",
	})

	require.NoError(t, err)
	assert.Equal(t, false, vals["manageJobsWithoutQueueName"])

	nested, ok := vals["controllerManager"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, nested["replicas"])
}

func TestMergeValuesSetOverridesYaml(t *testing.T) {
	t.Parallel()

	vals, err := mergeValues(&ChartSpec{
		ValuesYaml: "fullnameOverride: kueue\n",
		SetValues:  map[string]string{"fullnameOverride": "kueue-sandbox"},
	})

	require.NoError(t, err)
	assert.Equal(t, "kueue-sandbox", vals["fullnameOverride"])
}

func TestMergeValuesRejectsMalformedYaml(t *testing.T) {
	t.Parallel()

	_, err := mergeValues(&ChartSpec{ValuesYaml: "not: [valid"})

	require.Error(t, err)
}

func TestMergeValuesEmptySpec(t *testing.T) {
	t.Parallel()

	vals, err := mergeValues(&ChartSpec{})

	require.NoError(t, err)
	assert.Empty(t, vals)
}
