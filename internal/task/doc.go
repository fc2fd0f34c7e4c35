// Package task implements the persistent task engine of a storage-management
// daemon: a Task state machine that runs a synchronous prepare phase,
// optionally schedules a sequence of jobs onto an external worker pool, and
// can register LIFO recovery actions that run on failure or after a process
// restart. Tasks are crash-safe: their metadata, jobs, recoveries, and result
// are persisted to an on-disk directory layout that survives an interrupted
// write via an atomic rename sequence.
//
// The package does not implement a lock manager, a worker pool, or an RPC
// surface. Those are external collaborators consumed through the
// ResourceOwner and Queuer interfaces.
package task
