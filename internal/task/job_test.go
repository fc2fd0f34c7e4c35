package task

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/shoenig/test/must"
)

func newTestTask(t *testing.T) *Task {
	t.Helper()
	tsk, err := NewTask("", "test-task", "", RecoveryAuto, PriorityMedium, hclog.NewNullLogger())
	must.NoError(t, err)
	return tsk
}

// newPreparingTestTask returns a task with a manager set and forced into
// StatePreparing, the only state AddJob accepts — standing in for the
// prepare body that would normally call it.
func newPreparingTestTask(t *testing.T) *Task {
	t.Helper()
	tsk := newTestTask(t)
	tsk.SetManager(&fakeQueuer{})
	tsk.mu.Lock()
	must.NoError(t, tsk.updateStateLocked(StatePreparing))
	tsk.mu.Unlock()
	return tsk
}

func TestJob_RunInvokesCmdWithOwningTask(t *testing.T) {
	tsk := newPreparingTestTask(t)

	var sawTask *Task
	job := NewJob("copy", func(owner *Task) (string, error) {
		sawTask = owner
		return "copied", nil
	}, "src", "dst")

	must.NoError(t, tsk.AddJob(job))

	res, err := job.run()
	must.NoError(t, err)
	must.Eq(t, "copied", res)
	must.Eq(t, tsk, sawTask)
}

func TestJob_ReloadedJobIsNotRunnable(t *testing.T) {
	job := newPlaceholderJob()
	job.setOwnerTask(newTestTask(t))

	_, err := job.run()
	must.Error(t, err)

	_, ok := err.(*InvalidJobError)
	must.True(t, ok)
}

func TestTask_AddJob_RejectsDuplicateNames(t *testing.T) {
	tsk := newPreparingTestTask(t)
	must.NoError(t, tsk.AddJob(NewJob("dup", nil)))

	err := tsk.AddJob(NewJob("dup", nil))
	must.Error(t, err)
}

func TestTask_AddJob_RejectsUnmanagedTask(t *testing.T) {
	tsk := newTestTask(t)
	tsk.mu.Lock()
	must.NoError(t, tsk.updateStateLocked(StatePreparing))
	tsk.mu.Unlock()

	err := tsk.AddJob(NewJob("job", nil))
	must.ErrorIs(t, err, ErrUnmanagedTask)
}

func TestTask_AddJob_RejectsNonPreparingState(t *testing.T) {
	tsk := newTestTask(t)
	tsk.SetManager(&fakeQueuer{})

	err := tsk.AddJob(NewJob("job", nil))
	must.Error(t, err)

	_, ok := err.(*StateError)
	must.True(t, ok)
}
