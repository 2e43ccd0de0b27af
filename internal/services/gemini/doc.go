// Package gemini implements the vision analyzer boundary: one image in,
// structured {category, title, guessedDate, tags} out, produced by the Gemini
// generateContent API with a fixed response schema.
//
// The client is deliberately forgiving. Responses wrapped in code fences or
// prose still decode, unknown categories are stored as given after
// lower-casing, and any transport or parse failure yields the deterministic
// fallback analysis instead of an error so a flaky model never blocks ingest.
package gemini
