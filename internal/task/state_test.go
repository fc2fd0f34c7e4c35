package task

import (
	"fmt"
	"testing"

	"github.com/shoenig/test/must"
)

func TestState_IsDone(t *testing.T) {
	cases := []struct {
		state State
		done  bool
	}{
		{StateInit, false},
		{StateRunning, false},
		{StateAborting, false},
		{StateFinished, true},
		{StateRecovered, true},
		{StateFailed, true},
	}
	for _, c := range cases {
		must.Eq(t, c.done, c.state.IsDone(), must.Sprint(fmt.Sprintf("state %s", c.state)))
	}
}

func TestState_CanAbort(t *testing.T) {
	must.True(t, StateRunning.CanAbort())
	must.True(t, StateQueued.CanAbort())
	must.True(t, StatePreparing.CanAbort())
	must.False(t, StateFinished.CanAbort())
	must.False(t, StateRecovering.CanAbort())
}

func TestState_CanAbortRecovery(t *testing.T) {
	must.True(t, StateRAcquiring.CanAbortRecovery())
	must.True(t, StateRecovering.CanAbortRecovery())
	must.False(t, StateRunning.CanAbortRecovery())
}

func TestValidMove(t *testing.T) {
	must.True(t, validMove(StatePreparing, StateInit))
	must.True(t, validMove(StateQueued, StateAcquiring))
	must.False(t, validMove(StateQueued, StateInit))
	must.False(t, validMove(StateFinished, StateInit))
}

func TestDeprecatedMaps_CoverEveryState(t *testing.T) {
	all := []State{
		StateUnknown, StateInit, StatePreparing, StateBlocked, StateAcquiring,
		StateQueued, StateRunning, StateFinished, StateAborting, StateWaitRecover,
		StateRecovering, StateRAcquiring, StateRAborting, StateRecovered, StateFailed,
	}
	for _, s := range all {
		_, ok := DeprecatedState[s]
		must.True(t, ok, must.Sprint(fmt.Sprintf("DeprecatedState missing %s", s)))
		_, ok = DeprecatedResult[s]
		must.True(t, ok, must.Sprint(fmt.Sprintf("DeprecatedResult missing %s", s)))
	}
}

func TestDeprecatedResult_TerminalStates(t *testing.T) {
	must.Eq(t, "success", DeprecatedResult[StateFinished])
	must.Eq(t, "cleanSuccess", DeprecatedResult[StateRecovered])
	must.Eq(t, "cleanFailure", DeprecatedResult[StateFailed])
}
