package task

import (
	"fmt"
	"time"
)

// LockType identifies the kind of lock a Resource is requested or held
// under.
type LockType string

const (
	LockShared    LockType = "shared"
	LockExclusive LockType = "exclusive"
)

// Valid reports whether l is one of the defined lock types.
func (l LockType) Valid() bool {
	switch l {
	case LockShared, LockExclusive:
		return true
	}
	return false
}

// ResourceSeparator joins a Resource's namespace and name in its persisted
// key form.
const ResourceSeparator = "!"

// Resource names an external lock a task has requested or acquired, keyed
// by namespace and name. ResourceKeys reads back resource files named
// <key>.resource from a task directory; save does not write them.
type Resource struct {
	Namespace string
	Name      string
	LockType  LockType
}

// Key renders the namespace/name pair as used in the on-disk filename and
// in ResourceOwner lookups.
func (r Resource) Key() string {
	return r.Namespace + ResourceSeparator + r.Name
}

// Tuple returns the resource as a (namespace, name) pair.
func (r Resource) Tuple() (string, string) {
	return r.Namespace, r.Name
}

func (r Resource) String() string {
	return fmt.Sprintf("%s(%s)", r.Key(), r.LockType)
}

// ResourceOwner is the external lock manager a Task asks for resources
// through. Implementations own the actual lock table; the Task only tracks
// which keys it has requested.
type ResourceOwner interface {
	// Acquire requests lockType on (namespace, name), returning once the
	// request has been submitted. Grant is asynchronous and reported back
	// through Task.ResourceAcquired.
	Acquire(namespace, name string, lockType LockType, timeout time.Duration) error

	// CancelAll cancels every outstanding request made on behalf of the
	// calling task.
	CancelAll() error

	// ReleaseAll releases every resource granted to the calling task.
	ReleaseAll() error

	// RequestsGranted reports whether every outstanding request has been
	// granted.
	RequestsGranted() bool
}
