// Package model owns a model instance: the live graph behind a root
// interceptor, the current immutable snapshot, the bound method table, and
// the change subscriber.
//
// An Instance moves through three states:
//
//	constructing -> live -> destroyed
//
// Every write reaching the root interceptor is turned into a new snapshot by
// mutation.Apply, stamped with the next logical clock value, recorded in the
// journal (if any), and handed to the subscriber before the write returns.
// Snapshots are never modified after they are handed out.
//
// Thread-safety: an Instance is single-writer. Snapshots may be read from any
// goroutine.
package model
