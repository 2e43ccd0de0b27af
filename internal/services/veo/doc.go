// Package veo implements the video generator boundary as a long-running job:
// submit an animation request for one image, poll the operation at a fixed
// interval until it reports completion, then fetch the produced video and
// hand back a renderable in-memory reference.
//
// The poll loop is context-cancellable and bounded by a configurable maximum
// number of attempts. Unauthorized failures are tagged distinctly so the
// orchestrator can run credential re-selection before surfacing them.
package veo
