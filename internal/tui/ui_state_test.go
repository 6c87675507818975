package tui

import (
	"fmt"
	"testing"
	"time"

	"github.com/Paintersrp/subproc/internal/supervisor"
)

func TestUIApplyEventTracksEntryLifecycle(t *testing.T) {
	ui := newTestUI(t)

	base := time.Now()
	ui.applyEvent(supervisor.Event{Entry: "api", Type: supervisor.EventTypeStarting, Timestamp: base})
	ui.applyEvent(supervisor.Event{Entry: "api", Pid: 4321, Type: supervisor.EventTypeStarted, Timestamp: base.Add(5 * time.Millisecond)})

	state := ui.entries["api"]
	if state == nil {
		t.Fatalf("expected entry state to be created")
	}
	if state.pid != 4321 {
		t.Fatalf("expected pid 4321, got %d", state.pid)
	}
	if state.state != supervisor.EventTypeStarted {
		t.Fatalf("expected started state, got %q", state.state)
	}

	ui.applyEvent(supervisor.Event{Entry: "api", Pid: 4321, Type: supervisor.EventTypeRestarting, Message: "boom", Timestamp: base.Add(10 * time.Millisecond)})

	state = ui.entries["api"]
	if state.restarts != 1 {
		t.Fatalf("expected restarts=1, got %d", state.restarts)
	}

	ui.applyEvent(supervisor.Event{Entry: "api", Pid: 4321, Type: supervisor.EventTypeExited, Message: "exit status 0", Timestamp: base.Add(15 * time.Millisecond)})

	state = ui.entries["api"]
	if state.pid != 0 {
		t.Fatalf("expected pid cleared after exit, got %d", state.pid)
	}
	if state.state != supervisor.EventTypeExited {
		t.Fatalf("expected exited state, got %q", state.state)
	}
	if state.message != "exit status 0" {
		t.Fatalf("unexpected message %q", state.message)
	}
}

func TestUIApplyEventTrimsLogRetention(t *testing.T) {
	ui := newTestUI(t)
	ui.maxLogs = 3

	for i := 0; i < 5; i++ {
		ui.applyEvent(supervisor.Event{
			Entry:   "api",
			Type:    supervisor.EventTypeLog,
			Message: fmt.Sprintf("line-%d", i),
		})
	}

	state := ui.entries["api"]
	if state == nil {
		t.Fatalf("expected entry state to be created")
	}
	if len(state.logs) != 3 {
		t.Fatalf("expected 3 retained logs, got %d", len(state.logs))
	}
	if state.logs[0].Message != "line-2" {
		t.Fatalf("expected oldest retained log to be line-2, got %q", state.logs[0].Message)
	}
}
