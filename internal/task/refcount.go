package task

// ref counts outstanding operations holding the task open: prepare and
// commit each take a reference for the duration of the work they kick
// off, and doAbort takes a guard reference of its own while it performs
// the abort transition. A task may only finalize an abort once ref has
// drained to zero.

func (t *Task) incref() {
	t.mu.Lock()
	t.ref++
	t.mu.Unlock()
}

func (t *Task) increfLocked() { t.ref++ }

// decref drops the outstanding-operation count by one. If that leaves
// ref at zero while the task is mid-abort it finishes the abort; if it
// leaves ref at zero while the task is stuck in raborting (the one
// window where the source could strand a task — see design notes on
// ref==1-at-entry assumptions) it forces the task to failed directly
// instead of waiting for an event that will never come.
func (t *Task) decref() {
	t.mu.Lock()
	t.ref--
	ref := t.ref
	aborting := t.aborting
	stuckRaborting := t.state == StateRAborting && ref == 0
	t.mu.Unlock()

	if stuckRaborting {
		t.mu.Lock()
		if t.state == StateRAborting {
			if err := t.updateStateLocked(StateFailed); err != nil {
				t.logger.Warn("forcing failed out of stuck raborting failed", "error", err)
			}
		}
		t.mu.Unlock()
		return
	}

	if ref == 0 && aborting {
		t.doAbort()
	}
}

// abortingLocked reads the aborting flag directly. Callers must already
// hold t.mu.
func (t *Task) abortingLocked() bool { return t.aborting }

func isAbortState(s State) bool {
	switch s {
	case StateAborting, StateWaitRecover, StateRAcquiring, StateRecovering, StateRAborting:
		return true
	}
	return false
}

// doAbort finalizes an abort once every outstanding reference has
// drained: it takes a guard reference, cancels any pending resource
// requests, and transitions to aborting (or straight to raborting when a
// forced abort lands on a task that can only abort out of recovery). If
// the transition itself can't legally happen, it forces the task to
// failed as a last resort rather than leaving it stuck.
func (t *Task) doAbort() {
	t.mu.Lock()
	forcedRecoveryAbort := t.forceAbort && t.state.CanAbortRecovery() && !t.state.CanAbort()
	if t.ref != 0 || (isAbortState(t.state) && !forcedRecoveryAbort) || t.state.IsDone() {
		t.mu.Unlock()
		return
	}
	t.increfLocked()
	force := t.forceAbort
	owner := t.owner
	t.mu.Unlock()

	if owner != nil {
		if err := owner.CancelAll(); err != nil {
			t.logger.Warn("canceling resources during abort failed", "error", err)
		}
	}

	t.mu.Lock()
	var err error
	switch {
	case force && t.state.CanAbortRecovery() && !t.state.CanAbort():
		err = t.forceMoveLocked(StateRAborting)
	case t.state.CanAbort():
		err = t.updateStateLocked(StateAborting)
	default:
		err = &StateTransitionError{From: t.state, To: StateAborting}
	}
	if err != nil && !t.state.IsDone() {
		t.logger.Warn("abort transition failed, forcing failed", "error", err)
		if ferr := t.forceMoveLocked(StateFailed); ferr != nil {
			t.logger.Error("forcing failed state failed", "error", ferr)
		}
	}
	t.mu.Unlock()

	t.decref()
}
