// Package runstore persists scheduler state across restarts.
//
// The engine itself keeps no durable state. This package checkpoints the
// engine's pending-run snapshot into SQLite, records completed-run outcomes,
// and replays pending runs back through the engine's low-level ScheduleRun
// entry point at boot.
package runstore
