package task

import (
	"testing"

	"github.com/shoenig/test/must"
)

func TestValidateRecoveryName(t *testing.T) {
	must.NoError(t, validateRecoveryName("valid_Name1"))
	must.Error(t, validateRecoveryName(""))
	must.Error(t, validateRecoveryName("bad name"))
	must.Error(t, validateRecoveryName("bad-name"))
}

func TestRecovery_RunDispatchesThroughRegistry(t *testing.T) {
	var gotParams []string
	RegisterRecovery("volumegroup", "LogicalVolume", "remove", func(owner *Task, params []string) (string, error) {
		gotParams = params
		return "removed", nil
	})

	tsk := newTestTask(t)
	rec, err := NewRecovery("undo_create", "volumegroup", "LogicalVolume", "remove", []string{"vg0", "lv0"})
	must.NoError(t, err)
	must.NoError(t, tsk.PushRecovery(rec))

	res, err := rec.run()
	must.NoError(t, err)
	must.Eq(t, "removed", res)
	must.Eq(t, []string{"vg0", "lv0"}, gotParams)
}

func TestRecovery_RunUnregisteredFails(t *testing.T) {
	tsk := newTestTask(t)
	rec, err := NewRecovery("orphan", "nosuchmodule", "nosuchobject", "nosuchfunction", nil)
	must.NoError(t, err)
	must.NoError(t, tsk.PushRecovery(rec))

	_, err = rec.run()
	must.Error(t, err)

	_, ok := err.(*InvalidRecoveryError)
	must.True(t, ok)
}

func TestTask_RecoveryStack_LIFO(t *testing.T) {
	tsk := newTestTask(t)
	r1, _ := NewRecovery("first", "m", "o", "f", nil)
	r2, _ := NewRecovery("second", "m", "o", "f2", nil)
	must.NoError(t, tsk.PushRecovery(r1))
	must.NoError(t, tsk.PushRecovery(r2))

	must.Eq(t, "second", tsk.PopRecovery().Name())
	must.Eq(t, "first", tsk.PopRecovery().Name())
	must.Nil(t, tsk.PopRecovery())
}
