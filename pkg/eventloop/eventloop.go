// Package eventloop implements the minimal cooperative scheduler described
// by spec.md §4.4 "Event-loop hook" and §5 "Concurrency & Resource Model":
// a single-threaded FIFO task queue of promise callbacks. The VM drains it
// after a script's top-level bytecode returns, and `await` runs queued
// tasks in place until the awaited promise settles; no frame is suspended
// and resumed later through this queue.
package eventloop

import "github.com/google/uuid"

// Task is one enqueued continuation (a settled promise callback or a
// timer firing).
type Task struct {
	ID uuid.UUID
	Run func()
}

// Loop is the VM's cooperative scheduler collaborator. It is not
// goroutine-safe by design: spec.md §5 mandates strictly sequential,
// single-threaded scheduling with no parallel execution of bytecode.
type Loop struct {
	queue []Task
}

func New() *Loop { return &Loop{} }

// Enqueue appends a continuation to the end of the FIFO queue. Per
// spec.md §5 "Ordering", this is what gives `then`/`catch` callbacks FIFO
// order on a single promise and FIFO ordering between unrelated tasks.
func (l *Loop) Enqueue(run func()) uuid.UUID {
	id := uuid.New()
	l.queue = append(l.queue, Task{ID: id, Run: run})
	return id
}

// Cancel removes a not-yet-run task by id, if still queued. Returns false
// if the task already ran or was never enqueued.
func (l *Loop) Cancel(id uuid.UUID) bool {
	for i, t := range l.queue {
		if t.ID == id {
			l.queue = append(l.queue[:i], l.queue[i+1:]...)
			return true
		}
	}
	return false
}

// Pending reports whether any task is still queued (used by the VM/CLI to
// decide whether to keep draining after the top-level script returns).
func (l *Loop) Pending() bool { return len(l.queue) > 0 }

// RunOnce dequeues and runs the oldest pending task, if any.
func (l *Loop) RunOnce() bool {
	if len(l.queue) == 0 {
		return false
	}
	t := l.queue[0]
	l.queue = l.queue[1:]
	t.Run()
	return true
}

// Drain runs tasks, including ones newly enqueued by earlier tasks, until
// the queue is empty. The VM calls it once the top-level frame finishes;
// `await` uses RunOnce instead, one task at a time, while its promise is
// pending.
func (l *Loop) Drain() {
	for l.RunOnce() {
	}
}
