// Package views computes filtered and grouped projections of the photo
// collection. Both transformations are pure functions of a store snapshot and
// the active filter inputs; they hold no state and never mutate their inputs,
// so callers recompute them on every snapshot or filter change.
package views
