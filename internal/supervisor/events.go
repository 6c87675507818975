package supervisor

import (
	"time"

	"github.com/Paintersrp/subproc/internal/event"
)

// The event definitions live in internal/event so logmux can consume them
// without importing this package; the aliases below preserve the
// supervisor.Event API for existing call sites.

// EventType captures lifecycle and log notifications emitted by entry
// supervisors.
type EventType = event.EventType

const (
	EventTypeStarting   = event.EventTypeStarting
	EventTypeStarted    = event.EventTypeStarted
	EventTypeLog        = event.EventTypeLog
	EventTypeExited     = event.EventTypeExited
	EventTypeRestarting = event.EventTypeRestarting
	EventTypeFailed     = event.EventTypeFailed
	EventTypeStopped    = event.EventTypeStopped
)

// Log sources attached to events.
const (
	LogSourceStdout = event.LogSourceStdout
	LogSourceStderr = event.LogSourceStderr
	LogSourceSystem = event.LogSourceSystem
)

// Event reasons.
const (
	ReasonInitialStart   = event.ReasonInitialStart
	ReasonRestart        = event.ReasonRestart
	ReasonSpawnFailure   = event.ReasonSpawnFailure
	ReasonEntryExit      = event.ReasonEntryExit
	ReasonRetriesExhaust = event.ReasonRetriesExhaust
	ReasonShutdown       = event.ReasonShutdown
)

// Event represents a single lifecycle or log notification for one entry.
type Event = event.Event

func sendEvent(events chan<- Event, entry string, pid int, t EventType, message string, attempt int, reason string, err error) {
	if events == nil {
		return
	}
	events <- Event{
		Timestamp: time.Now(),
		Entry:     entry,
		Pid:       pid,
		Type:      t,
		Message:   message,
		Attempt:   attempt,
		Reason:    reason,
		Err:       err,
		Source:    LogSourceSystem,
	}
}
