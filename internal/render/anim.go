package render

import (
	"time"

	"github.com/google/uuid"
)

// Task is one ticking animation. It runs once per frame and reports whether
// it wants another frame; returning false removes it. Not rescheduling once
// the owning flag clears is the only cancellation path a task needs, but the
// scene store also cancels tasks deterministically when their owning entity
// is removed.
type Task func(now time.Time) bool

// Animator owns the cooperative per-frame tasks, keyed by the owning
// entity's ID. It runs entirely on the event loop; it is not safe for
// concurrent use.
type Animator struct {
	tasks  map[uuid.UUID]Task
	redraw func()
}

// NewAnimator creates an animator that schedules frames through redraw.
func NewAnimator(redraw func()) *Animator {
	return &Animator{tasks: map[uuid.UUID]Task{}, redraw: redraw}
}

// Add registers (or replaces) the task owned by id and requests a frame.
func (a *Animator) Add(id uuid.UUID, task Task) {
	a.tasks[id] = task
	a.requestFrame()
}

// Cancel removes the task owned by id, if any.
func (a *Animator) Cancel(id uuid.UUID) {
	delete(a.tasks, id)
}

// Active reports whether any task is ticking.
func (a *Animator) Active() bool { return len(a.tasks) > 0 }

// Step runs every task once. Tasks returning false are removed. While any
// task remains, another frame is requested.
func (a *Animator) Step(now time.Time) {
	for id, task := range a.tasks {
		if !task(now) {
			delete(a.tasks, id)
		}
	}
	if len(a.tasks) > 0 {
		a.requestFrame()
	}
}

func (a *Animator) requestFrame() {
	if a.redraw != nil {
		a.redraw()
	}
}
