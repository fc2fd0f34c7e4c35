package task

import (
	"fmt"
	"time"
)

// runJobs drives the task's job list to completion on the calling
// goroutine, one job at a time, in the order the jobs were added. It is
// launched with `go t.runJobs()` as the entry action for StateRunning,
// which holds the one reference Commit took for the run.
//
// Before each job it checks whether an abort has been requested; if so it
// records the same "shutting down" result the original raises as
// TaskAborted before ever invoking a job, releases Commit's reference (so
// the abort, requested via Stop, can finalize once the reference count
// drains), and stops scheduling further jobs — moveLocked's overlay
// redirects the task's eventual next transition into the abort path. Each
// job that does run goes through runWrapped so any failure is recorded
// uniformly and triggers the same abort path via its own Stop call.
func (t *Task) runJobs() {
	t.mu.Lock()
	aborting := t.abortingLocked()
	jobs := append([]*Job(nil), t.jobs...)
	t.mu.Unlock()
	if aborting {
		t.recordJobsAborted()
		return
	}

	result := ""
	completed := 0
	for _, j := range jobs {
		t.mu.Lock()
		aborting := t.abortingLocked()
		t.mu.Unlock()
		if aborting {
			t.recordJobsAborted()
			return
		}

		start := time.Now()
		res, err := t.runWrapped(j.run)
		t.emitJobMetric(j, err)
		t.emitJobTiming(j, start)
		if err != nil {
			// runWrapped already recorded the failure and called Stop.
			// Releasing Commit's reference here lets the abort finalize
			// once every reference has drained; the overlay then drives
			// the task into the abort path.
			t.decref()
			return
		}
		result = res
		completed++
	}

	t.mu.Lock()
	t.result = Result{
		Code:    0,
		Message: fmt.Sprintf("%d jobs completed successfuly", completed),
		Result:  result,
	}
	err := t.updateStateLocked(StateFinished)
	t.mu.Unlock()
	if err != nil {
		t.logger.Warn("finishing task failed", "error", err)
	}
}

// recordJobsAborted records the "shutting down" result a preemptive abort
// check raises in place of running any further job, and releases the
// reference Commit took for this run so the abort Stop already requested
// can finalize once every outstanding reference has drained. Callers must
// not be holding t.mu.
func (t *Task) recordJobsAborted() {
	t.mu.Lock()
	t.result = Result{Code: 100, Message: "shutting down", Result: ""}
	t.mu.Unlock()
	t.decref()
}
