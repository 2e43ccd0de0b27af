// Package daemon wires the store, pipeline, and HTTP API into a
// single-instance background process.
package daemon
