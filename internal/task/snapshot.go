package task

import "github.com/mitchellh/copystructure"

// Snapshot is an immutable deep copy of a task's mutable state, safe to
// read and compare after the Task itself has moved on.
type Snapshot struct {
	ID         string
	Name       string
	Tag        string
	State      State
	Result     Result
	JobNames   []string
	Recoveries []string
}

// Snapshot deep-copies the task's current result so the returned value is
// unaffected by later mutation, mirroring the copystructure-based
// snapshotting Nomad uses before handing task state across goroutine
// boundaries.
func (t *Task) Snapshot() (Snapshot, error) {
	t.mu.Lock()
	id, name, tag, state := t.id, t.name, t.tag, t.state
	jobNames := make([]string, len(t.jobs))
	for i, j := range t.jobs {
		jobNames[i] = j.name
	}
	recoveryNames := make([]string, len(t.recoveries))
	for i, r := range t.recoveries {
		recoveryNames[i] = r.name
	}
	result := t.result
	t.mu.Unlock()

	copied, err := copystructure.Copy(result)
	if err != nil {
		return Snapshot{}, err
	}
	resultCopy, ok := copied.(Result)
	if !ok {
		resultCopy = result
	}

	return Snapshot{
		ID:         id,
		Name:       name,
		Tag:        tag,
		State:      state,
		Result:     resultCopy,
		JobNames:   jobNames,
		Recoveries: recoveryNames,
	}, nil
}
