package task

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-set/v3"
)

// lockEntry is one held or queued lock on a (namespace, name) pair.
type lockEntry struct {
	holders *set.Set[string] // task IDs holding a shared lock
	excl    string            // task ID holding the exclusive lock, if any
}

// LocalResourceManager is a minimal in-process ResourceOwner: an
// in-memory table of namespace/name locks, granted synchronously on
// Acquire. It exists so Task can be exercised end to end without a real
// distributed lock manager; a production deployment supplies its own
// ResourceOwner per task instead.
type LocalResourceManager struct {
	mu      sync.Mutex
	locks   map[string]*lockEntry
	pending *set.Set[string] // resource keys this task is still waiting on
	granted *set.Set[string] // resource keys this task currently holds
	owner   *Task
	logger  hclog.Logger
}

// NewLocalResourceManager constructs a ResourceOwner bound to one task.
func NewLocalResourceManager(owner *Task, locks map[string]*lockEntry, logger hclog.Logger) *LocalResourceManager {
	if locks == nil {
		locks = map[string]*lockEntry{}
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &LocalResourceManager{
		locks:   locks,
		pending: set.New[string](4),
		granted: set.New[string](4),
		owner:   owner,
		logger:  logger,
	}
}

// Acquire requests lockType on (namespace, name). Shared requests are
// granted immediately unless an exclusive holder exists; exclusive
// requests are granted immediately unless any holder exists. A request
// that cannot be granted is left pending and RequestsGranted reports
// false while it is; nothing in this type re-examines a pending request
// later, so a release by the conflicting holder does not grant it.
func (m *LocalResourceManager) Acquire(namespace, name string, lockType LockType, timeout time.Duration) error {
	if !lockType.Valid() {
		return fmt.Errorf("%w: invalid lock type %q", ErrInvalidParameter, lockType)
	}
	key := Resource{Namespace: namespace, Name: name, LockType: lockType}.Key()

	m.mu.Lock()
	entry, ok := m.locks[key]
	if !ok {
		entry = &lockEntry{holders: set.New[string](2)}
		m.locks[key] = entry
	}
	m.pending.Insert(key)
	conflict := entry.excl != "" || (lockType == LockExclusive && entry.holders.Size() > 0)
	m.mu.Unlock()

	if err := m.owner.ResourceRegistered(Resource{Namespace: namespace, Name: name, LockType: lockType}); err != nil {
		return err
	}
	if conflict {
		m.logger.Debug("resource acquisition blocked", "key", key, "lock", lockType)
		return nil
	}

	m.mu.Lock()
	if lockType == LockExclusive {
		entry.excl = m.owner.ID()
	} else {
		entry.holders.Insert(m.owner.ID())
	}
	m.pending.Remove(key)
	m.granted.Insert(key)
	m.mu.Unlock()

	return m.owner.ResourceAcquired(Resource{Namespace: namespace, Name: name, LockType: lockType})
}

// CancelAll removes every pending request made on behalf of the owning
// task, without touching locks already granted.
func (m *LocalResourceManager) CancelAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = set.New[string](4)
	return nil
}

// ReleaseAll releases every lock granted to the owning task.
func (m *LocalResourceManager) ReleaseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range m.granted.Slice() {
		if entry, ok := m.locks[key]; ok {
			if entry.excl == m.owner.ID() {
				entry.excl = ""
			}
			entry.holders.Remove(m.owner.ID())
		}
	}
	m.granted = set.New[string](4)
	return nil
}

// RequestsGranted reports whether every outstanding request has been
// granted.
func (m *LocalResourceManager) RequestsGranted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending.Empty()
}
