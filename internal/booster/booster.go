package booster

import (
	"fmt"
	"log"
	"sync"

	"frontpriority/internal/priority"
)

// PriorityOps abstracts the nice-value syscalls so the state machine can be
// exercised without touching real processes.
type PriorityOps interface {
	// Get returns the current nice value of pid.
	Get(pid int) (int, error)
	// Set sets the nice value of pid.
	Set(pid int, nice int) error
}

// Recorder receives a copy of every transition for persistence. May be
// implemented by a history repository; nil disables recording.
type Recorder interface {
	RecordBoost(pid, from, to int, applyErr error)
	RecordRevert(pid, restored int, applyErr error)
}

// Booster tracks at most one boosted process at a time and performs the
// revert/boost protocol on every focus transition.
//
// The zero PID means no process is currently boosted. Whenever pid is
// non-zero, original holds the nice value the process had immediately before
// this program modified it, and Booster is solely responsible for restoring
// it.
type Booster struct {
	mu       sync.Mutex
	rule     priority.Rule
	ops      PriorityOps
	recorder Recorder

	pid      int
	original int
}

// New returns an idle Booster applying rule through ops. recorder may be nil.
func New(rule priority.Rule, ops PriorityOps, recorder Recorder) *Booster {
	return &Booster{
		rule:     rule,
		ops:      ops,
		recorder: recorder,
	}
}

// OnFocusChange runs one full transition: revert whatever is currently
// boosted, then boost the new owner. pid 0 means the new active window has no
// resolvable owning process, leaving the machine idle.
//
// Safe to call concurrently with Revert; the signal path and the event loop
// share this state.
func (b *Booster) OnFocusChange(pid int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.revertLocked()

	if pid == 0 {
		return
	}

	current, err := b.ops.Get(pid)
	if err != nil {
		// Process vanished or priority is unreadable: stay idle, a later
		// focus change will self-correct.
		log.Printf("%v", err)
		return
	}

	newNice := b.rule.Apply(current)
	fmt.Printf("Setting PID %d from priority %d to priority %d\n", pid, current, newNice)

	setErr := b.ops.Set(pid, newNice)
	if setErr != nil {
		log.Printf("%v", setErr)
	}

	// Record the tracked state even when the set failed: reverting to the
	// value we read is a no-op in that case, and a partially applied change
	// still gets undone.
	b.pid = pid
	b.original = current

	if b.recorder != nil {
		b.recorder.RecordBoost(pid, current, newNice, setErr)
	}
}

// Revert restores the currently boosted process, if any, to its original
// priority. It is idempotent: calling it while idle is a no-op.
func (b *Booster) Revert() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revertLocked()
}

func (b *Booster) revertLocked() {
	if b.pid == 0 {
		return
	}

	pid, original := b.pid, b.original
	fmt.Printf("Resetting PID %d to priority %d\n", pid, original)

	err := b.ops.Set(pid, original)
	if err != nil {
		log.Printf("%v", err)
	}

	// Clear unconditionally. Retrying against a possibly dead or reused PID
	// is worse than a failed restore.
	b.pid = 0

	if b.recorder != nil {
		b.recorder.RecordRevert(pid, original, err)
	}
}

// Current reports the tracked state for status displays.
func (b *Booster) Current() (pid int, original int, boosted bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pid, b.original, b.pid != 0
}

// Rule returns the adjustment rule this booster applies.
func (b *Booster) Rule() priority.Rule {
	return b.rule
}
