// Package supervisor runs the daemon's background goroutines under a shared
// context with panic recovery and graceful shutdown.
package supervisor
