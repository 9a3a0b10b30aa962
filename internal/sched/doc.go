// Package sched implements the periodic task scheduling engine.
//
// The engine owns three things:
//   - scheduling math (delay computation, polling-interval clamping, drift rewind)
//   - the tick-driven drain loop that hands due runs to the worker pool
//   - the reschedule decision after each completed run
//
// Everything else is a collaborator consumed through a small contract: the task
// itself (Task), run id naming (RunIDGenerator), the continue/stop decision
// (StopStrategy) and execution (WorkerPool).
//
// Deletion is preventive and best-effort: a mark set via Delete stops a task's
// next dispatch or its next reschedule, whichever checkpoint sees the mark
// first, and never interrupts a run already handed to a worker.
package sched
