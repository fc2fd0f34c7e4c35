package task

import (
	"sync"
	"testing"
	"time"

	"github.com/shoenig/test/must"
	"github.com/shoenig/test/wait"
)

// fakeQueuer records every task handed to it once it reaches queued.
type fakeQueuer struct {
	mu   sync.Mutex
	done []*Task
}

func (f *fakeQueuer) Queue(t *Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.done = append(f.done, t)
	go func() { _ = t.Commit() }()
	return nil
}

func (f *fakeQueuer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.done)
}

// fakeResourceOwner grants every request it sees on the next call to
// RequestsGranted, simulating an always-available lock manager.
type fakeResourceOwner struct {
	mu      sync.Mutex
	granted bool
}

func (f *fakeResourceOwner) Acquire(namespace, name string, lockType LockType, timeout time.Duration) error {
	f.mu.Lock()
	f.granted = true
	f.mu.Unlock()
	return nil
}

func (f *fakeResourceOwner) CancelAll() error  { return nil }
func (f *fakeResourceOwner) ReleaseAll() error { return nil }
func (f *fakeResourceOwner) RequestsGranted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.granted
}

func waitUntilDone(t *testing.T, tsk *Task) {
	t.Helper()
	must.Wait(t, wait.InitialSuccess(
		wait.ErrorFunc(func() error {
			if !tsk.IsDone() {
				return errNotYetDone
			}
			return nil
		}),
		wait.Timeout(2*time.Second),
		wait.Gap(10*time.Millisecond),
	))
}

func TestTask_Prepare_RunsJobsWhenNoResourcesRequested(t *testing.T) {
	tsk := newTestTask(t)
	q := &fakeQueuer{}
	tsk.SetManager(q)

	id, err := tsk.Prepare(func(owner *Task) (string, error) {
		must.NoError(t, owner.AddJob(NewJob("job1", func(owner *Task) (string, error) {
			return "one", nil
		})))
		must.NoError(t, owner.AddJob(NewJob("job2", func(owner *Task) (string, error) {
			return "two", nil
		})))
		return "", nil
	})
	must.NoError(t, err)
	must.Eq(t, tsk.ID(), id)

	waitUntilDone(t, tsk)

	status := tsk.GetStatus()
	must.Eq(t, StateFinished, status.State)
	must.Eq(t, "two", status.Result.Result)
	must.Eq(t, 1, q.count())
}

func TestTask_Prepare_NoJobsReturnsPrepareResult(t *testing.T) {
	tsk := newTestTask(t)

	res, err := tsk.Prepare(func(owner *Task) (string, error) {
		return "only-result", nil
	})
	must.NoError(t, err)
	must.Eq(t, "only-result", res)

	status := tsk.GetStatus()
	must.Eq(t, StateFinished, status.State)
}

func TestTask_Prepare_FailureAbortsAndRecovers(t *testing.T) {
	tsk := newTestTask(t)
	q := &fakeQueuer{}
	tsk.SetManager(q)

	var recovered bool
	RegisterRecovery("test", "fixture", "undoPrepare", func(owner *Task, params []string) (string, error) {
		recovered = true
		return "undone", nil
	})
	rec, err := NewRecovery("undo_prepare", "test", "fixture", "undoPrepare", nil)
	must.NoError(t, err)
	must.NoError(t, tsk.PushRecovery(rec))

	_, err = tsk.Prepare(func(owner *Task) (string, error) {
		return "", newAbortedError("prepare failed", 42)
	})
	must.Error(t, err)

	waitUntilDone(t, tsk)

	must.True(t, recovered)
	status := tsk.GetStatus()
	must.Eq(t, StateRecovered, status.State)
}

func TestTask_Stop_AbortsRunningTask(t *testing.T) {
	tsk := newTestTask(t)
	q := &fakeQueuer{}
	tsk.SetManager(q)

	started := make(chan struct{})
	release := make(chan struct{})

	_, err := tsk.Prepare(func(owner *Task) (string, error) {
		must.NoError(t, owner.AddJob(NewJob("slow", func(owner *Task) (string, error) {
			close(started)
			<-release
			return "slow-done", nil
		})))
		return "", nil
	})
	must.NoError(t, err)
	<-started

	must.NoError(t, tsk.Stop(false))
	close(release)

	waitUntilDone(t, tsk)

	status := tsk.GetStatus()
	must.Eq(t, StateRecovered, status.State)
}

func TestTask_DeprecatedGetStatus_MapsThroughLegacyTables(t *testing.T) {
	tsk := newTestTask(t)
	status := tsk.DeprecatedGetStatus()
	must.Eq(t, "init", status.State)
	must.Eq(t, "", status.Result)
}

func TestTask_Commit_IllegalFromInit(t *testing.T) {
	tsk := newTestTask(t)
	err := tsk.Commit()
	must.Error(t, err)

	_, ok := err.(*StateTransitionError)
	must.True(t, ok)
}

func TestTask_Rollback_RequiresDoneState(t *testing.T) {
	tsk := newTestTask(t)
	err := tsk.Rollback()
	must.Error(t, err)

	_, ok := err.(*NotFinishedError)
	must.True(t, ok)
}

var errNotYetDone = &StateError{Message: "task not yet done"}
