// Package executor provides task runners for background filter builds.
//
// WorkerPool runs tasks on a fixed set of goroutines with bounded queueing,
// Inline runs them on the submitting goroutine. Both satisfy segbloom.Executor.
package executor
