// Package autosave bridges an authoritative in-memory value and a slower
// persistent store.
//
// A Container[T] holds the live value; mutations made through it are
// immediately visible in memory. A Synchronizer[T] watches the container and
// writes the value back to storage with debouncing: a flush fires after
// Delay of quiet, MaxWait caps how long a mutation burst may keep postponing
// it, and Immediate mode fires the first flush of a window on the next tick.
//
// Guarantees:
//   - at most one save callback is in flight per synchronizer
//   - a trailing mutation is never dropped; a mutation arriving while a save
//     runs opens a new window that is scheduled once the save settles
//   - every save receives a deep snapshot taken when the flush starts, so
//     later in-memory mutation cannot leak into a save already in flight
//
// Storage is a pair of callbacks (LoadFunc, SaveFunc); the store package and
// its backends adapt concrete storage into them.
package autosave
