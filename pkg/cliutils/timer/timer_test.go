package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerTracksTotalAndStage(t *testing.T) {
	t.Parallel()

	current := time.Unix(0, 0)
	clock := func() time.Time { return current }

	tmr := newWithClock(clock)

	current = current.Add(2 * time.Second)
	tmr.NewStage()

	current = current.Add(3 * time.Second)

	total, stage := tmr.GetTiming()
	assert.Equal(t, 5*time.Second, total)
	assert.Equal(t, 3*time.Second, stage)
}

func TestTimerStartResets(t *testing.T) {
	t.Parallel()

	current := time.Unix(0, 0)
	clock := func() time.Time { return current }

	tmr := newWithClock(clock)

	current = current.Add(10 * time.Second)
	tmr.Start()

	current = current.Add(time.Second)

	total, stage := tmr.GetTiming()
	assert.Equal(t, time.Second, total)
	assert.Equal(t, time.Second, stage)
}
