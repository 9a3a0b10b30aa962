// Package taskkit provides ready-made collaborators for the scheduling
// engine: cron- and interval-driven tasks, a shell-command job, stop
// strategies, and run id generators.
//
// The engine itself (internal/sched) only consumes the contracts; everything
// here is optional convenience for callers like cmd/cadenced.
package taskkit
