// Package inmemorybackend provides a thread-safe, in-memory implementation
// of the backend.Backend interface. It renders nothing: it records every call
// and keeps the resulting property state per node, which makes it suitable
// for headless runs of the CLI and for asserting on scene behavior in tests.
package inmemorybackend
