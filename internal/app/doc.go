// Package app wires the reload pipeline into a runnable application: it
// builds the logger, the compiler, the update bus, the engine and the scene,
// runs them as one task group, and serves health and debug endpoints.
// It is decoupled from any specific entrypoint like a CLI.
package app
