// Command lensflow manages an AI-enriched photo collection. `lensflow serve`
// runs the daemon; the remaining commands talk to it over its HTTP API.
package main
