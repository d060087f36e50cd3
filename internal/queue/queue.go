// Package queue drains deferred API calls one at a time, pausing between
// calls so a rate-limited destination is never hit in parallel.
package queue

import (
	"context"
	"fmt"
	"time"
)

// Task is one deferred side-effecting call, e.g. a single entry upload.
type Task func(ctx context.Context) error

// Result records the outcome of one executed task.
type Result struct {
	Position int           `json:"position"`
	Name     string        `json:"name"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// OK reports whether the task completed without error.
func (r Result) OK() bool {
	return r.Err == nil
}

type item struct {
	name string
	run  Task
}

// Queue is an ordered list of tasks executed strictly in FIFO order, never
// concurrently. It is not safe for concurrent use; one run owns one queue.
type Queue struct {
	pacer *Pacer
	items []item
	seq   int

	// OnResult, when set, is called after each task finishes and before
	// the pacing delay.
	OnResult func(Result)
}

// New returns an empty queue that waits on pacer after every task.
func New(pacer *Pacer) *Queue {
	return &Queue{pacer: pacer}
}

// Enqueue appends a task to the tail of the queue.
func (q *Queue) Enqueue(name string, t Task) {
	q.items = append(q.items, item{name: name, run: t})
}

// Len returns the number of tasks waiting to run.
func (q *Queue) Len() int {
	return len(q.items)
}

// Drain runs every queued task in order until the queue is empty and
// returns one Result per task. A failing task is recorded and the drain
// moves on to the next one.
func (q *Queue) Drain(ctx context.Context) []Result {
	results := make([]Result, 0, len(q.items))
	for len(q.items) > 0 {
		next := q.items[0]
		q.items[0] = item{}
		q.items = q.items[1:]
		q.seq++

		start := time.Now()
		err := runTask(ctx, next.run)
		res := Result{
			Position: q.seq,
			Name:     next.name,
			Err:      err,
			Duration: time.Since(start),
		}
		results = append(results, res)

		if q.OnResult != nil {
			q.OnResult(res)
		}

		// The delay only paces outbound calls; a cancelled wait is not a task failure.
		_ = q.pacer.Wait(ctx)
	}
	q.items = nil
	return results
}

func runTask(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return t(ctx)
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}
