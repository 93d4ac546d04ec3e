// Package timer provides stage-aware elapsed time tracking for CLI output.
package timer

import "time"

// Timer tracks total elapsed time and the elapsed time of the current stage.
// Commands start the timer once and call NewStage whenever a new activity
// begins, so success messages can report both durations.
type Timer interface {
	// Start begins timing. Calling Start again resets the timer.
	Start()

	// NewStage marks the beginning of a new stage.
	NewStage()

	// GetTiming returns the total elapsed time and the current stage's elapsed time.
	GetTiming() (total time.Duration, stage time.Duration)
}

type realTimer struct {
	start      time.Time
	stageStart time.Time
	now        func() time.Time
}

// New creates a Timer backed by the wall clock.
func New() Timer {
	return newWithClock(time.Now)
}

func newWithClock(now func() time.Time) Timer {
	t := &realTimer{now: now}
	t.Start()

	return t
}

func (t *realTimer) Start() {
	t.start = t.now()
	t.stageStart = t.start
}

func (t *realTimer) NewStage() {
	t.stageStart = t.now()
}

func (t *realTimer) GetTiming() (time.Duration, time.Duration) {
	current := t.now()

	return current.Sub(t.start).Round(time.Millisecond),
		current.Sub(t.stageStart).Round(time.Millisecond)
}
