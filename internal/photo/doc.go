// Package photo defines the central Photo record and the in-memory Store that
// is the collection's single source of truth.
//
// The Store is copy-on-write: every Append or UpdateByID builds a new
// immutable snapshot slice and atomically swaps it in, so readers never
// observe a record mid-mutation and derived views can hold a snapshot without
// locking. Consumers that need to react to collection changes subscribe to
// snapshot publications instead of polling.
//
// Records are append-only from the ingest side. The only fields that ever
// change after insertion are VideoRef and AnimationInFlight, patched by the
// animation-completion path through UpdateByID.
package photo
