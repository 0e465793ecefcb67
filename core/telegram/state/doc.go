// Package state stores per-user conversation progress for multi-step
// dialogs. Every user has at most one active flow; sessions carry a
// creation timestamp so abandoned dialogs can be swept after a TTL.
package state
