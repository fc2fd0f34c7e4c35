package task

import "fmt"

// JobFunc is the callable body of a Job. It runs synchronously on the
// worker thread driving the owning Task and receives the task as context.
type JobFunc func(t *Task) (string, error)

// Job is a single asynchronous unit of work scheduled onto a Task. Jobs
// belonging to one task run sequentially, in the order they were added, on
// a single worker thread.
//
// cmd is not persisted: a Job reloaded from disk (via loadTask) is a
// placeholder usable for inspection and recovery bookkeeping, not
// re-execution — reload never restores a callable.
type Job struct {
	name     string
	cmd      JobFunc
	argsList []string
	runCmd   string
	callback func(*Job)

	// task is a non-owning back-reference to the Task that owns this Job.
	// The Task is the sole owner of the Job's lifetime.
	task *Task
}

// NewJob constructs a Job. args is a printable argument list folded into
// runcmd for diagnostics; it carries no execution semantics.
func NewJob(name string, cmd JobFunc, args ...string) *Job {
	return &Job{
		name:     name,
		cmd:      cmd,
		argsList: append([]string(nil), args...),
		runCmd:   fmt.Sprintf("%s(args: %v)", name, args),
	}
}

// Name returns the job's name, unique within its owning task.
func (j *Job) Name() string { return j.name }

// RunCmd returns the printable description stored in metadata.
func (j *Job) RunCmd() string { return j.runCmd }

// SetCallback installs a hook invoked immediately before the job body runs.
func (j *Job) SetCallback(cb func(*Job)) { j.callback = cb }

func (j *Job) setOwnerTask(t *Task) { j.task = t }

// run executes the job body. A Job reloaded from disk has no cmd and
// reports InvalidJobError instead of running anything.
func (j *Job) run() (string, error) {
	if j.cmd == nil {
		return "", &InvalidJobError{Message: fmt.Sprintf("job %s: reloaded from disk, not runnable", j.name)}
	}
	if j.callback != nil {
		j.callback(j)
	}
	return j.cmd(j.task)
}

func (j *Job) metaFields() []metaField {
	return []metaField{
		{name: "name",
			get: func() string { return j.name },
			set: func(v string) error { j.name = v; return nil }},
		{name: "runcmd",
			get: func() string { return j.runCmd },
			set: func(v string) error { j.runCmd = v; return nil }},
	}
}

// newPlaceholderJob builds the shell Job that loadTask appends before
// reading its metafile into it.
func newPlaceholderJob() *Job {
	return &Job{name: "load"}
}
