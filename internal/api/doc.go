// Package api exposes the photo collection and pipeline operations over
// HTTP, plus the client the CLI uses to reach a running daemon.
package api
