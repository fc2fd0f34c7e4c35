package task

// State is a task's position in the task lifecycle state machine.
type State string

const (
	StateUnknown     State = "unknown"
	StateInit        State = "init"
	StatePreparing   State = "preparing"
	StateBlocked     State = "blocked"
	StateAcquiring   State = "acquiring"
	StateQueued      State = "queued"
	StateRunning     State = "running"
	StateFinished    State = "finished"
	StateAborting    State = "aborting"
	StateWaitRecover State = "waitrecover"
	StateRecovering  State = "recovering"
	StateRAcquiring  State = "racquiring"
	StateRAborting   State = "raborting"
	StateRecovered   State = "recovered"
	StateFailed      State = "failed"
)

func (s State) String() string { return string(s) }

// transitions enumerates, for every target state, the set of states a task
// may validly be moving from. This table is the single source of truth for
// moveto: an edge not listed here is illegal unless the caller forces it.
var transitions = map[State][]State{
	StateUnknown:     {},
	StateInit:        {},
	StatePreparing:   {StateInit, StateBlocked},
	StateBlocked:     {StatePreparing},
	StateAcquiring:   {StatePreparing, StateAcquiring},
	StateQueued:      {StateAcquiring, StateRunning},
	StateRunning:     {StateQueued},
	StateFinished:    {StateRunning, StatePreparing},
	StateAborting:    {StatePreparing, StateBlocked, StateAcquiring, StateQueued, StateRunning},
	StateWaitRecover: {StateAborting},
	StateRAcquiring:  {StateAborting, StateFinished, StateRAcquiring, StateWaitRecover},
	StateRecovering:  {StateRAcquiring},
	StateRAborting:   {StateRAcquiring, StateRecovering, StateWaitRecover},
	StateRecovered:   {StateRecovering},
	StateFailed:      {StateRecovering, StateAborting, StateRAborting},
}

var terminalStates = map[State]bool{
	StateFinished:  true,
	StateRecovered: true,
	StateFailed:    true,
}

// DeprecatedState maps the current, fine-grained state to the legacy
// coarse-grained state reported by deprecated_getStatus. Preserved
// byte-for-byte from the original implementation.
var DeprecatedState = map[State]string{
	StateUnknown:     "unknown",
	StateInit:        "init",
	StatePreparing:   "running",
	StateBlocked:     "running",
	StateAcquiring:   "running",
	StateQueued:      "running",
	StateRunning:     "running",
	StateFinished:    "finished",
	StateAborting:    "aborting",
	StateWaitRecover: "cleaning",
	StateRecovering:  "cleaning",
	StateRAcquiring:  "cleaning",
	StateRAborting:   "aborting",
	StateRecovered:   "finished",
	StateFailed:      "finished",
}

// DeprecatedResult maps the current state to the legacy result string.
// Preserved byte-for-byte from the original implementation.
var DeprecatedResult = map[State]string{
	StateUnknown:     "",
	StateInit:        "",
	StatePreparing:   "",
	StateBlocked:     "",
	StateAcquiring:   "",
	StateQueued:      "",
	StateRunning:     "",
	StateFinished:    "success",
	StateAborting:    "",
	StateWaitRecover: "",
	StateRecovering:  "",
	StateRAcquiring:  "",
	StateRAborting:   "",
	StateRecovered:   "cleanSuccess",
	StateFailed:      "cleanFailure",
}

// IsDone reports whether s is one of the three terminal states.
func (s State) IsDone() bool { return terminalStates[s] }

// CanAbort reports whether a task currently in s may transition directly to
// StateAborting.
func (s State) CanAbort() bool { return containsState(transitions[StateAborting], s) }

// CanAbortRecovery reports whether a task currently in s may transition
// directly to StateRAborting.
func (s State) CanAbortRecovery() bool { return containsState(transitions[StateRAborting], s) }

func containsState(list []State, s State) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// validMove reports whether target may be entered from from, per the
// transition table. It does not consider force.
func validMove(target, from State) bool {
	list, ok := transitions[target]
	if !ok {
		return false
	}
	return containsState(list, from)
}
