package task

// PrepareFunc runs synchronously at the start of a task's life. It
// typically calls AddJob, PushRecovery, and requests resources through
// the task's ResourceOwner before returning. Its return value becomes
// the task's result only if no jobs end up being added.
type PrepareFunc func(t *Task) (string, error)

// Prepare increments the task's reference count, transitions it to
// preparing, and runs prepareFn through the uniform error wrapper. If
// prepareFn's failure (or a concurrent Stop) left the task aborting,
// Prepare returns the recorded error. Otherwise: if jobs were added, the
// task advances to acquiring and Prepare returns the task's ID (the
// caller enqueues it once resources are granted); if no jobs were added,
// the task's result is set to prepareFn's return value and the task
// advances directly to finished.
func (t *Task) Prepare(prepareFn PrepareFunc) (string, error) {
	t.incref()

	t.mu.Lock()
	if err := t.updateStateLocked(StatePreparing); err != nil {
		t.mu.Unlock()
		t.decref()
		return "", err
	}
	t.mu.Unlock()

	res, _ := t.runWrapped(func() (string, error) { return prepareFn(t) })

	t.mu.Lock()
	if t.abortingLocked() {
		stored := t.lastErr
		t.mu.Unlock()
		// The prepare body failed (or a concurrent Stop arrived); the
		// reference taken above is released here since the task never
		// reaches a terminal state synchronously on this path.
		t.decref()
		return "", stored
	}

	if len(t.jobs) > 0 {
		id := t.id
		err := t.updateStateLocked(StateAcquiring)
		t.mu.Unlock()
		// Acquiring is not terminal, so nothing downstream will release
		// this reference; Commit takes its own when the task is later
		// handed to the worker pool.
		t.decref()
		if err != nil {
			return "", err
		}
		return id, nil
	}

	t.result = Result{Code: 0, Message: "OK", Result: res}
	err := t.updateStateLocked(StateFinished)
	t.mu.Unlock()
	// Finished is terminal: the entry action's doneLocked releases this
	// reference asynchronously.
	return res, err
}

// Commit is called by the worker pool once it has picked up a task that
// reached queued: it takes a reference for the duration of the run and
// transitions the task to running, which launches runJobs.
func (t *Task) Commit() error {
	t.incref()
	t.mu.Lock()
	err := t.updateStateLocked(StateRunning)
	t.mu.Unlock()
	return err
}

// Stop requests that the task abort, optionally forcing it to override
// an in-progress recovery. It is cooperative: running job and recovery
// code is expected to check Aborting and return promptly. If the task
// has no outstanding references when Stop is called, it finalizes the
// abort immediately; otherwise the reference holder's eventual decref
// does.
func (t *Task) Stop(force bool) error {
	t.mu.Lock()
	if t.state.IsDone() {
		t.mu.Unlock()
		return nil
	}
	t.aborting = true
	if force {
		t.forceAbort = true
	}
	ref := t.ref
	t.mu.Unlock()

	if ref == 0 {
		t.doAbort()
	}
	return nil
}

// Aborting reports whether an abort has been requested and not yet
// applied by the abort overlay of a state transition.
func (t *Task) Aborting() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.abortingLocked()
}

// Rollback forces a finished-but-not-yet-committed task directly into
// its recovery path. It is only valid once the task is done and its
// recovery policy isn't none.
func (t *Task) Rollback() error {
	t.mu.Lock()
	if !t.state.IsDone() {
		t.mu.Unlock()
		return &NotFinishedError{Message: "task has not reached a terminal state"}
	}
	if t.recoveryPolicy == RecoveryNone {
		t.mu.Unlock()
		return &StateError{Message: "rollback requires a recovery policy other than none"}
	}
	if t.ref != 0 {
		id := t.id
		t.mu.Unlock()
		return &HasRefsError{ID: id}
	}
	err := t.forceMoveLocked(StateRAcquiring)
	t.mu.Unlock()
	return err
}

// Recover is the restart point after a daemon restart; it must never be
// called on a task that is actively running. It branches on the task's
// current state: a done task is a no-op; a task that can still abort
// forward is stopped; a task already waiting for manual recovery is left
// alone; a task that crashed mid-recovery is forced back into
// racquiring to re-drive resource acquisition; anything else is force-
// stopped, since the daemon has no record of what the task was doing
// when it crashed.
func (t *Task) Recover() error {
	t.mu.Lock()
	state := t.state
	t.mu.Unlock()

	switch {
	case state.IsDone():
		return nil
	case state.CanAbort():
		return t.Stop(false)
	case state == StateWaitRecover:
		return nil
	case state == StateRAcquiring || state == StateRecovering:
		t.mu.Lock()
		err := t.forceMoveLocked(StateRAcquiring)
		t.mu.Unlock()
		return err
	default:
		return t.Stop(true)
	}
}

// Status is a snapshot of a task's current state and result.
type Status struct {
	State  State
	Result Result
}

// GetStatus returns a snapshot of the task's current state and result.
func (t *Task) GetStatus() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{State: t.state, Result: t.result}
}

// DeprecatedStatus is the coarse-grained status shape kept for callers
// that predate the fine-grained state machine.
type DeprecatedStatus struct {
	State   string
	Result  string
	Code    int
	Message string
}

// DeprecatedGetStatus returns the task's status in the legacy
// coarse-grained shape, via DeprecatedState and DeprecatedResult.
func (t *Task) DeprecatedGetStatus() DeprecatedStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return DeprecatedStatus{
		State:   DeprecatedState[t.state],
		Result:  DeprecatedResult[t.state],
		Code:    t.result.Code,
		Message: t.result.Message,
	}
}

// Close releases a task's in-memory resources, replacing the original
// implementation's reliance on destructor-driven cleanup. A task closed
// before reaching a terminal state logs a warning and performs the same
// best-effort resource release and (under CleanAuto) directory clean the
// terminal entry action would have, synchronously on the calling
// goroutine before returning.
func (t *Task) Close() error {
	t.mu.Lock()
	state := t.state
	t.mu.Unlock()

	if state.IsDone() {
		return nil
	}

	t.logger.Warn("closing task before it reached a terminal state", "state", state)
	owner := t.owner
	cleanPolicy := t.cleanPolicy
	if owner != nil {
		if err := owner.ReleaseAll(); err != nil {
			t.logger.Warn("releasing resources on close failed", "error", err)
		}
	}
	if cleanPolicy == CleanAuto {
		return t.clean()
	}
	return nil
}
