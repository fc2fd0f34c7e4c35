package task

// updateStateLocked is the unforced form of moveLocked. Callers must hold
// t.mu.
func (t *Task) updateStateLocked(target State) error {
	return t.moveLocked(target, false)
}

// forceMoveLocked bypasses the transition table, used only by the narrow
// set of callers the spec calls out explicitly (Recover's re-entry into
// racquiring, Rollback's entry into racquiring, doAbort's forced move to
// raborting and its last-resort push to failed). Callers must hold t.mu.
func (t *Task) forceMoveLocked(target State) error {
	return t.moveLocked(target, true)
}

// moveLocked moves the task to target, honoring the abort overlay: once
// aborting has been requested, the requested destination is rewritten to
// aborting when the current state can abort directly, or to raborting
// when it can abort out of recovery and the requested state isn't
// recovered. The aborting flag is cleared once the overlay has been
// applied, so it redirects only one transition. Callers must hold t.mu.
func (t *Task) moveLocked(target State, force bool) error {
	if target == t.state {
		return nil
	}

	effective := target
	if t.aborting {
		switch {
		case t.state.CanAbort():
			effective = StateAborting
		case t.state.CanAbortRecovery() && target != StateRecovered:
			effective = StateRAborting
		}
		t.aborting = false
	}

	if !validMove(effective, t.state) && !force {
		return &StateTransitionError{From: t.state, To: effective}
	}

	from := t.state
	t.state = effective
	t.logger.Debug("task state transition", "from", from, "to", effective, "requested", target)

	return t.runEntryActionLocked(effective)
}

// runEntryActionLocked performs the side effects the spec assigns to
// entering each state. It runs after the transition and after any
// auto-persist attempt, on the goroutine that performed the move.
// Callers must hold t.mu. The terminal entry action's ResourceOwner
// ReleaseAll and directory clean run on a spawned goroutine (see
// doneLocked); ResourceOwner.RequestsGranted (acquiring, racquiring) and
// Queuer.Queue (queued) are called while t.mu is held.
func (t *Task) runEntryActionLocked(s State) error {
	switch s {
	case StateAcquiring:
		if err := t.persistLocked(); err != nil {
			t.logger.Warn("persisting acquiring state failed", "error", err)
		}
		if t.owner == nil || t.owner.RequestsGranted() {
			return t.updateStateLocked(StateQueued)
		}
		return nil

	case StateQueued:
		if err := t.persistLocked(); err != nil {
			t.logger.Warn("persisting queued state failed", "error", err)
		}
		if t.manager != nil {
			if err := t.manager.Queue(t); err != nil {
				t.setErrorLocked(err)
				t.aborting = true
				return t.updateStateLocked(StateAborting)
			}
		}
		return nil

	case StateRunning:
		if err := t.persistLocked(); err != nil {
			t.logger.Warn("persisting running state failed", "error", err)
		}
		go t.runJobs()
		return nil

	case StateFinished:
		t.doneLocked()
		return nil

	case StateAborting:
		if err := t.persistLocked(); err != nil {
			t.logger.Warn("persisting aborting state failed", "error", err)
		}
		if t.ref > 1 {
			t.logger.Debug("aborting: waiting for outstanding references to drain", "ref", t.ref)
			return nil
		}
		switch t.recoveryPolicy {
		case RecoveryAuto:
			return t.updateStateLocked(StateRAcquiring)
		case RecoveryNone:
			return t.updateStateLocked(StateFailed)
		default:
			return t.updateStateLocked(StateWaitRecover)
		}

	case StateWaitRecover:
		return t.persistLocked()

	case StateRAcquiring:
		if err := t.persistLocked(); err != nil {
			t.logger.Warn("persisting racquiring state failed", "error", err)
		}
		if t.owner == nil || t.owner.RequestsGranted() {
			return t.updateStateLocked(StateRecovering)
		}
		return nil

	case StateRecovering:
		if err := t.persistLocked(); err != nil {
			t.logger.Warn("persisting recovering state failed", "error", err)
		}
		go t.runRecovery()
		return nil

	case StateRAborting:
		if err := t.persistLocked(); err != nil {
			t.logger.Warn("persisting raborting state failed", "error", err)
		}
		if t.ref == 1 {
			return t.updateStateLocked(StateFailed)
		}
		t.logger.Debug("raborting: awaiting decref", "ref", t.ref)
		return nil

	case StateRecovered, StateFailed:
		t.doneLocked()
		return nil

	default:
		return t.persistLocked()
	}
}

// doneLocked implements the spec's shared terminal entry action: release
// every resource the task still holds and, if the clean policy calls for
// it, remove the task's on-disk directory. Both calls reach out to
// external collaborators, so they run on a spawned goroutine rather than
// while t.mu is held.
func (t *Task) doneLocked() {
	t.emitTerminalMetric()
	owner := t.owner
	cleanPolicy := t.cleanPolicy
	go func() {
		if owner != nil {
			if err := owner.ReleaseAll(); err != nil {
				t.logger.Warn("releasing resources on task completion failed", "error", err)
			}
		}
		if cleanPolicy == CleanAuto {
			if err := t.clean(); err != nil {
				t.logger.Warn("auto-clean on task completion failed", "error", err)
			}
		}
		t.decref()
	}()
}

// persistLocked calls persist without re-acquiring t.mu; callers must
// already hold it.
func (t *Task) persistLocked() error {
	if t.persistPolicy == PersistNone || t.store == "" {
		return nil
	}
	return t.save(t.store)
}

// setErrorLocked records the error that forced the task into an abort or
// failure path. Callers must hold t.mu.
func (t *Task) setErrorLocked(err error) {
	if err == nil {
		return
	}
	if t.lastErr == nil {
		t.lastErr = err
	}
	code, message := 100, err.Error()
	if se, ok := err.(*StorageError); ok {
		code, message = se.Code, se.Message
	}
	t.result.Code = code
	t.result.Message = message
}

