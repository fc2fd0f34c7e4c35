package task

// GetExclusiveLock requests an exclusive lock on (namespace, name) through
// the task's ResourceOwner, using the task's configured
// TaskResourceDefaultTimeout. It mirrors the original's
// getExclusiveLock/getSharedLock convenience wrappers around
// resOwner.acquire, the only place config.TaskResourceDefaultTimeout is
// consumed.
func (t *Task) GetExclusiveLock(namespace, name string) error {
	return t.acquireLock(namespace, name, LockExclusive)
}

// GetSharedLock requests a shared lock on (namespace, name) through the
// task's ResourceOwner, using the task's configured
// TaskResourceDefaultTimeout.
func (t *Task) GetSharedLock(namespace, name string) error {
	return t.acquireLock(namespace, name, LockShared)
}

func (t *Task) acquireLock(namespace, name string, lockType LockType) error {
	t.mu.Lock()
	owner := t.owner
	timeout := t.config.TaskResourceDefaultTimeout
	t.mu.Unlock()

	if owner == nil {
		return ErrNoResourceOwner
	}
	return owner.Acquire(namespace, name, lockType, timeout)
}
