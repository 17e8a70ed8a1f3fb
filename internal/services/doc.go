// Package services holds the shared plumbing for external collaborators:
// the error taxonomy used to classify stage failures, context annotation
// helpers for structured logging, and the command executor abstraction that
// every tool client runs through.
package services
