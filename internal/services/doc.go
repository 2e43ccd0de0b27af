// Package services defines shared utilities consumed by the pipeline
// orchestrator and the external AI integrations.
//
// Key responsibilities:
//   - Context helpers that stamp photo IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures classify
//     consistently (unauthorized vs malformed vs transient) across clients.
//
// Use these helpers when wiring new pipeline logic so error handling and
// observability stay uniform.
package services
