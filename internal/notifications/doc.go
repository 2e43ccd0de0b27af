// Package notifications delivers pipeline event notifications via ntfy.
//
// The service is optional: when no topic is configured every call becomes a
// noop, so callers never need to guard notification sends.
package notifications
