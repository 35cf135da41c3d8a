// Package state keeps per-user conversation sessions for multi-step dialogues.
//
// A Session records the current step of a dialogue plus the string fields
// collected so far. Sessions live in a Store; the Postgres-backed SQLStore
// survives restarts while MemoryStore serves tests and local runs. Manager
// routes an incoming update to the handler registered for the user's step.
package state
