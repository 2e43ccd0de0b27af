// Package credentials models the credential selection boundary: a shared
// Store the AI clients read their API key from, and a Selector that prompts
// for a new key when none is configured or when the current one is rejected.
package credentials
