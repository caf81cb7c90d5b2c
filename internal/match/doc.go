// Package match owns the engagement lifecycle: a two-party game proposal
// moves Proposed -> Confirmed, and leaves the registry only through
// cancellation. The core invariant, enforced on every mutation, is that a
// player appears in at most one live engagement at a time.
package match
