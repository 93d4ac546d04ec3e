package notify_test

import (
	"bytes"
	"testing"

	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/notify"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/timer"
	"github.com/stretchr/testify/assert"
)

func TestErrorfWritesSymbolAndContent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	notify.Errorf(&buf, "boom: %s", "detail")

	assert.Contains(t, buf.String(), "✗ boom: detail")
}

func TestActivityfFormatsArguments(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	notify.Activityf(&buf, "creating cluster %q", "manager")

	assert.Contains(t, buf.String(), `► creating cluster "manager"`)
}

func TestSuccessWithTimerfEmitsTimingBlock(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	tmr := timer.New()
	tmr.Start()

	notify.SuccessWithTimerf(&buf, tmr, "cluster created")

	output := buf.String()
	assert.Contains(t, output, "✔ cluster created")
	assert.Contains(t, output, "⏲ current:")
	assert.Contains(t, output, "total:")
}

func TestTitlefUsesDefaultEmojiWhenUnset(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	notify.Titlef(&buf, "", "Create sandbox...")

	assert.Contains(t, buf.String(), "Create sandbox...")
}

func TestWriteMessagePlainMessageKeepsContent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	notify.WriteMessage(notify.Message{
		Type:    notify.InfoType,
		Content: "worker endpoint resolved",
		Writer:  &buf,
	})

	assert.Contains(t, buf.String(), "ℹ worker endpoint resolved")
}
