package task

import (
	"time"

	"github.com/armon/go-metrics"
)

// labels returns the base label set stamped on every metric a task emits,
// mirroring Nomad's baseLabels helper on the allocrunner task runner.
func (t *Task) labels() []metrics.Label {
	return []metrics.Label{
		{Name: "task_name", Value: t.name},
		{Name: "priority", Value: string(t.priority)},
	}
}

// emitTerminalMetric counts a task reaching a terminal state, labeled by
// the state it landed in.
func (t *Task) emitTerminalMetric() {
	labels := append(t.labels(), metrics.Label{Name: "state", Value: string(t.state)})
	metrics.IncrCounterWithLabels([]string{"task", "terminal"}, 1, labels)
}

// emitJobMetric counts a single job's completion, labeled by whether it
// errored.
func (t *Task) emitJobMetric(j *Job, err error) {
	labels := append(t.labels(), metrics.Label{Name: "job", Value: j.name})
	if err != nil {
		labels = append(labels, metrics.Label{Name: "outcome", Value: "error"})
	} else {
		labels = append(labels, metrics.Label{Name: "outcome", Value: "ok"})
	}
	metrics.IncrCounterWithLabels([]string{"task", "job"}, 1, labels)
}

// emitJobTiming samples a per-job run duration, gated behind
// Config.EnableProfiling since it adds a sample point per job rather than
// per task and is only worth the cardinality when profiling is requested.
func (t *Task) emitJobTiming(j *Job, start time.Time) {
	if !t.config.EnableProfiling {
		return
	}
	metrics.MeasureSinceWithLabels([]string{"task", "job", "duration"}, start, append(t.labels(), metrics.Label{Name: "job", Value: j.name}))
}

// emitRecoveryMetric counts a single recovery running, labeled by whether
// it errored.
func (t *Task) emitRecoveryMetric(r *Recovery, err error) {
	labels := append(t.labels(), metrics.Label{Name: "recovery", Value: r.name})
	if err != nil {
		labels = append(labels, metrics.Label{Name: "outcome", Value: "error"})
	} else {
		labels = append(labels, metrics.Label{Name: "outcome", Value: "ok"})
	}
	metrics.IncrCounterWithLabels([]string{"task", "recovery"}, 1, labels)
}
