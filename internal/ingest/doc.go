// Package ingest turns raw files into in-memory encoded payloads: binary
// content, a detected MIME type, and a displayable thumbnail reference. It
// applies a permissive image filter; a file that fails to read or is not an
// image is excluded on its own without failing the surrounding batch.
package ingest
