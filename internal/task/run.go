package task

// runWrapped is the _run wrapper every job, recovery, and prepare body
// runs through: on success it returns the body's result untouched; on
// failure it classifies the error (a *StorageError carries its own
// code/message, anything else is recorded as code 100 with the error's
// text), records it as the task's last error and result, requests an
// abort, and returns an *AbortedError uniform to every caller.
func (t *Task) runWrapped(fn func() (string, error)) (string, error) {
	res, err := fn()
	if err == nil {
		return res, nil
	}

	code, message := 100, err.Error()
	if se, ok := err.(*StorageError); ok {
		code, message = se.Code, se.Message
	}

	t.mu.Lock()
	aborted := newAbortedError(message, code)
	if t.lastErr == nil {
		t.lastErr = aborted
	}
	t.result.Code = code
	t.result.Message = message
	t.mu.Unlock()

	if stopErr := t.Stop(false); stopErr != nil {
		t.logger.Warn("stop after run failure failed", "error", stopErr)
	}
	return "", aborted
}
