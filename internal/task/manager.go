package task

// Queuer is the external worker pool a Task hands itself to once it has
// acquired every resource it needs and is ready to run its jobs. Queue
// is expected to enqueue the task onto a worker thread, which eventually
// calls Task.Commit to start the run.
type Queuer interface {
	// Queue schedules t for execution. A returned error is recorded on
	// the task and treated as a reason to abort.
	Queue(t *Task) error
}
