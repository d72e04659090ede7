// Package scheduler provides cancellable deferred callbacks.
package scheduler

import (
	"sync"
	"time"

	"github.com/blackhole-game/blackhole/internal/ports"
)

// Timer runs callbacks on their own goroutine via time.AfterFunc.
type Timer struct{}

func NewTimer() *Timer { return &Timer{} }

func (Timer) After(d time.Duration, f func()) ports.Task {
	return time.AfterFunc(d, f)
}

// Manual holds callbacks until RunPending is called. It is meant for tests
// and headless drivers that need deterministic ordering.
type Manual struct {
	mu    sync.Mutex
	tasks []*manualTask
}

func NewManual() *Manual { return &Manual{} }

type manualTask struct {
	owner *Manual
	delay time.Duration
	f     func()
	done  bool
}

func (t *manualTask) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

func (m *Manual) After(d time.Duration, f func()) ports.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTask{owner: m, delay: d, f: f}
	m.tasks = append(m.tasks, t)
	return t
}

// Pending counts callbacks that are neither stopped nor run.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if !t.done {
			n++
		}
	}
	return n
}

// LastDelay returns the delay of the most recently scheduled callback.
func (m *Manual) LastDelay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tasks) == 0 {
		return 0
	}
	return m.tasks[len(m.tasks)-1].delay
}

// RunPending runs every callback scheduled so far, in order, and returns
// how many ran. Callbacks scheduled while running wait for the next call.
func (m *Manual) RunPending() int {
	m.mu.Lock()
	batch := m.tasks
	m.tasks = nil
	var due []func()
	for _, t := range batch {
		if !t.done {
			t.done = true
			due = append(due, t.f)
		}
	}
	m.mu.Unlock()
	for _, f := range due {
		f()
	}
	return len(due)
}
