// Package clock provides a single-threaded timer queue driven by explicit
// Advance calls. The host game loop advances it once per tick, so every
// callback runs on the same goroutine as input handling and drawing.
package clock

import "time"

// MinInterval is the smallest repeat interval Every accepts.
const MinInterval = time.Millisecond

// Scheduler schedules callbacks on a cooperative queue.
type Scheduler interface {
	After(d time.Duration, fn func()) *Timer
	Every(d time.Duration, fn func()) *Timer
}

// Timer is a handle to a scheduled task.
type Timer struct {
	q       *Queue
	seq     uint64
	at      time.Duration
	every   time.Duration
	fn      func()
	stopped bool
}

// Stop cancels the task. It returns false if the task already fired (one-shot)
// or was already stopped.
func (t *Timer) Stop() bool {
	if t == nil || t.stopped {
		return false
	}
	t.stopped = true
	t.q.remove(t)
	return true
}

// Active reports whether the task is still pending.
func (t *Timer) Active() bool {
	return t != nil && !t.stopped
}

// Queue is a virtual-time task queue. It is not safe for concurrent use.
type Queue struct {
	now   time.Duration
	seq   uint64
	tasks []*Timer
}

// NewQueue returns an empty queue at time zero.
func NewQueue() *Queue {
	return &Queue{}
}

// Now returns the virtual time elapsed since the queue was created.
func (q *Queue) Now() time.Duration {
	return q.now
}

// Pending returns the number of scheduled tasks.
func (q *Queue) Pending() int {
	return len(q.tasks)
}

// After runs fn once, d after the current time.
func (q *Queue) After(d time.Duration, fn func()) *Timer {
	if d < 0 {
		d = 0
	}
	return q.add(q.now+d, 0, fn)
}

// Every runs fn every d, first firing d after the current time.
func (q *Queue) Every(d time.Duration, fn func()) *Timer {
	if d < MinInterval {
		d = MinInterval
	}
	return q.add(q.now+d, d, fn)
}

// Advance moves time forward by d, firing every task that comes due in
// deadline order. Tasks with equal deadlines fire in scheduling order.
func (q *Queue) Advance(d time.Duration) {
	if d < 0 {
		return
	}
	target := q.now + d
	for {
		t := q.next(target)
		if t == nil {
			break
		}
		q.now = t.at
		if t.every > 0 {
			t.at += t.every
			q.seq++
			t.seq = q.seq
		} else {
			t.stopped = true
			q.remove(t)
		}
		t.fn()
	}
	q.now = target
}

func (q *Queue) add(at, every time.Duration, fn func()) *Timer {
	q.seq++
	t := &Timer{q: q, seq: q.seq, at: at, every: every, fn: fn}
	q.tasks = append(q.tasks, t)
	return t
}

// next returns the earliest task due at or before target.
func (q *Queue) next(target time.Duration) *Timer {
	var best *Timer
	for _, t := range q.tasks {
		if t.at > target {
			continue
		}
		if best == nil || t.at < best.at || (t.at == best.at && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (q *Queue) remove(t *Timer) {
	for i, task := range q.tasks {
		if task == t {
			q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
			return
		}
	}
}
