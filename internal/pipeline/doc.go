// Package pipeline coordinates the photo enrichment flow: file ingest,
// awaited vision analysis, store insertion, and asynchronous single-flight
// animation jobs with credential re-selection on unauthorized responses.
package pipeline
