// Package pool provides the worker pools the scheduling engine submits runs to.
//
// Two implementations:
//   - Unbounded: goroutine per submission, never blocks, never drops. This is
//     the default and the recommended choice.
//   - Fixed: N workers draining a bounded queue, with optional submission rate
//     limiting. Submissions beyond the queue capacity are dropped and counted.
//
// Both satisfy the engine's WorkerPool contract (Submit is fire-and-forget).
package pool
