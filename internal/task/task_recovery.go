package task

// runRecovery requires state recovering. It pops the recovery stack one
// entry at a time, top first, running each through runWrapped, until the
// stack is empty or a recovery fails. It is launched with
// `go t.runRecovery()` as the entry action for StateRecovering.
func (t *Task) runRecovery() {
	t.mu.Lock()
	if t.state != StateRecovering {
		t.mu.Unlock()
		return
	}
	r := t.popRecoveryLocked()
	t.mu.Unlock()

	if r == nil {
		t.recoverDone()
		return
	}

	_, err := t.runWrapped(r.run)
	t.emitRecoveryMetric(r, err)
	if err != nil {
		// runWrapped recorded the failure and called Stop; since the
		// task is already past the point where it can abort forward,
		// the overlay redirects into raborting on the next transition
		// that moveLocked drives here.
		t.mu.Lock()
		rabortErr := t.updateStateLocked(StateRAborting)
		t.mu.Unlock()
		if rabortErr != nil {
			t.logger.Warn("entering raborting after recovery failure failed", "error", rabortErr)
		}
		return
	}

	t.runRecovery()
}

// recoverDone finalizes a fully unwound recovery stack: recovering
// becomes recovered, and a stranded raborting (should the stack have
// emptied exactly as the last failure arrived) becomes failed.
func (t *Task) recoverDone() {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state {
	case StateRecovering:
		if err := t.updateStateLocked(StateRecovered); err != nil {
			t.logger.Warn("finalizing recovery failed", "error", err)
		}
	case StateRAborting:
		if err := t.updateStateLocked(StateFailed); err != nil {
			t.logger.Warn("finalizing failed recovery failed", "error", err)
		}
	}
}
