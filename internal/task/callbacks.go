package task

// ResourceRegistered is invoked by the ResourceOwner once it has recorded
// a new outstanding request made on this task's behalf. A task that is
// still preparing drops into blocked so Prepare's body can keep running
// while the request is outstanding; a task already blocked stays there.
// Any other state means the request arrived out of order and is logged
// without changing anything.
//
// callbackMu serializes this against ResourceAcquired so the two never
// interleave their effects on a single task. The lock order is always
// incref, then callbackMu, then mu, unwinding in the reverse order,
// never inverted.
func (t *Task) ResourceRegistered(res Resource) error {
	t.incref()
	t.callbackMu.Lock()
	t.mu.Lock()

	var err error
	switch t.state {
	case StatePreparing:
		err = t.updateStateLocked(StateBlocked)
	case StateBlocked:
		t.logger.Debug("resource registered while already blocked", "resource", res.Key())
	default:
		t.logger.Warn("resource registered in unexpected state", "resource", res.Key(), "state", t.state)
	}

	t.mu.Unlock()
	t.callbackMu.Unlock()
	t.decref()
	return err
}

// ResourceAcquired is invoked by the ResourceOwner once a previously
// registered request has been granted. A blocked task returns to
// preparing so its body can resume. An acquiring or racquiring task
// rechecks whether every outstanding request is now granted: if so it
// advances to queued (acquiring) or recovering (racquiring); if not it
// stays put until the remaining grants arrive. A still-preparing task
// ignores the callback, since it has not yet registered every request it
// will make. An aborting or raborting task ignores it too: resources are
// being released, not acquired, by the time those states are reached.
// Any other state is a protocol violation.
func (t *Task) ResourceAcquired(res Resource) error {
	t.incref()
	t.callbackMu.Lock()
	allGranted := t.owner != nil && t.owner.RequestsGranted()

	t.mu.Lock()
	t.logger.Debug("resource acquired", "resource", res.Key(), "lock", res.LockType, "allGranted", allGranted)

	var err error
	switch t.state {
	case StateBlocked:
		err = t.updateStateLocked(StatePreparing)
	case StateAcquiring:
		if allGranted {
			err = t.updateStateLocked(StateQueued)
		}
	case StateRAcquiring:
		if allGranted {
			err = t.updateStateLocked(StateRecovering)
		}
	case StatePreparing:
	case StateAborting, StateRAborting:
		t.logger.Debug("resource acquired while aborting, ignoring", "resource", res.Key())
	default:
		err = &StateError{Message: "resource acquired in unexpected state " + string(t.state)}
	}

	t.mu.Unlock()
	t.callbackMu.Unlock()
	t.decref()
	return err
}
