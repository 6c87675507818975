// Package event holds the shared event types emitted by entry supervisors.
// It lives below both supervisor and logmux so the two packages can share
// these definitions without importing each other.
package event

import "time"

// EventType captures lifecycle and log notifications emitted by entry
// supervisors.
type EventType string

const (
	EventTypeStarting   EventType = "starting"
	EventTypeStarted    EventType = "started"
	EventTypeLog        EventType = "log"
	EventTypeExited     EventType = "exited"
	EventTypeRestarting EventType = "restarting"
	EventTypeFailed     EventType = "failed"
	EventTypeStopped    EventType = "stopped"
)

// Log sources attached to events.
const (
	LogSourceStdout = "stdout"
	LogSourceStderr = "stderr"
	LogSourceSystem = "system"
)

// Event reasons.
const (
	ReasonInitialStart   = "initial_start"
	ReasonRestart        = "restart"
	ReasonSpawnFailure   = "spawn_failure"
	ReasonEntryExit      = "entry_exit"
	ReasonRetriesExhaust = "retries_exhausted"
	ReasonShutdown       = "shutdown"
)

// Event represents a single lifecycle or log notification for one entry.
type Event struct {
	Timestamp time.Time
	Entry     string
	Pid       int
	Type      EventType
	Message   string
	Level     string
	Source    string
	Err       error
	Attempt   int
	Reason    string
}
