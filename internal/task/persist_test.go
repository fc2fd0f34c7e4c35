package task

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shoenig/test/must"
)

// taskSnapshot captures the fields a save/load round trip must preserve, in
// a form cmp can diff without reaching into Task's unexported, mutex-guarded
// state.
type taskSnapshot struct {
	ID            string
	Name          string
	Tag           string
	JobNames      []string
	RecoveryNames []string
}

func snapshotTask(tsk *Task) taskSnapshot {
	snap := taskSnapshot{ID: tsk.ID(), Name: tsk.Name(), Tag: tsk.Tag()}
	for _, j := range tsk.Jobs() {
		snap.JobNames = append(snap.JobNames, j.Name())
	}
	for _, r := range tsk.Recoveries() {
		snap.RecoveryNames = append(snap.RecoveryNames, r.Name())
	}
	return snap
}

func TestTask_SaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	tsk := newPreparingTestTask(t)
	must.NoError(t, tsk.SetPersistence(root, PersistAuto, CleanAuto))
	must.NoError(t, tsk.AddJob(NewJob("jobA", nil, "x")))
	rec, err := NewRecovery("undo", "m", "o", "f", []string{"p1"})
	must.NoError(t, err)
	must.NoError(t, tsk.PushRecovery(rec))

	must.NoError(t, tsk.persist())

	loaded, err := LoadTask(root, tsk.ID(), nil)
	must.NoError(t, err)

	if diff := cmp.Diff(snapshotTask(tsk), snapshotTask(loaded)); diff != "" {
		t.Errorf("loaded task differs from saved task (-want +got):\n%s", diff)
	}
}

func TestTask_Save_RemovesPriorGenerationBackupAfterSwap(t *testing.T) {
	root := t.TempDir()
	tsk := newTestTask(t)
	must.NoError(t, tsk.SetPersistence(root, PersistAuto, CleanAuto))

	must.NoError(t, tsk.persist())
	firstDir := filepath.Join(root, tsk.ID())
	must.True(t, pathExists(firstDir))

	tsk.SetTag("second-generation")
	must.NoError(t, tsk.persist())

	// save() removes the backup generation once the swap completes, so a
	// clean run leaves exactly one generation on disk.
	must.False(t, pathExists(firstDir+BackupExt))
	must.True(t, pathExists(firstDir))

	loaded, err := LoadTask(root, tsk.ID(), nil)
	must.NoError(t, err)
	must.Eq(t, "second-generation", loaded.Tag())
}

func TestLoadTask_MissingReturnsError(t *testing.T) {
	root := t.TempDir()
	_, err := LoadTask(root, "does-not-exist", nil)
	must.Error(t, err)
}

func TestTask_Clean_RemovesStoreDirectory(t *testing.T) {
	root := t.TempDir()
	tsk := newTestTask(t)
	must.NoError(t, tsk.SetPersistence(root, PersistAuto, CleanAuto))
	must.True(t, pathExists(filepath.Join(root, tsk.ID())))

	must.NoError(t, tsk.Clean(true))
	must.False(t, pathExists(filepath.Join(root, tsk.ID())))
}

func TestTask_SetPersistence_RequiresStoreUnlessNone(t *testing.T) {
	tsk := newTestTask(t)
	err := tsk.SetPersistence("", PersistAuto, CleanAuto)
	must.Error(t, err)

	_, ok := err.(*PersistError)
	must.True(t, ok)

	must.NoError(t, tsk.SetPersistence("", PersistNone, CleanNone))
}

func TestTask_SetPersistence_PersistsImmediatelyWhenAutoAndNotInit(t *testing.T) {
	root := t.TempDir()
	tsk := newTestTask(t)
	tsk.mu.Lock()
	must.NoError(t, tsk.updateStateLocked(StatePreparing))
	tsk.mu.Unlock()

	must.NoError(t, tsk.SetPersistence(root, PersistAuto, CleanAuto))

	_, err := LoadTask(root, tsk.ID(), nil)
	must.NoError(t, err)
}
