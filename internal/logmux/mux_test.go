package logmux

import (
	"testing"
	"time"

	"github.com/Paintersrp/subproc/internal/event"
)

func TestMuxFansInMultipleSources(t *testing.T) {
	mux := New(4)
	src1 := make(chan event.Event)
	src2 := make(chan event.Event)

	mux.Add(src1)
	mux.Add(src2)

	go func() {
		src1 <- event.Event{Entry: "api", Type: event.EventTypeLog, Message: "api ready"}
		src1 <- event.Event{Entry: "api", Type: event.EventTypeLog, Message: "api ok"}
		close(src1)
	}()

	go func() {
		src2 <- event.Event{Entry: "worker", Type: event.EventTypeLog, Message: "worker ready"}
		close(src2)
	}()

	go mux.Close()

	perEntry := make(map[string][]string)
	for evt := range mux.Output() {
		perEntry[evt.Entry] = append(perEntry[evt.Entry], evt.Message)
	}

	if len(perEntry["api"]) != 2 || perEntry["api"][0] != "api ready" || perEntry["api"][1] != "api ok" {
		t.Fatalf("unexpected api events: %v", perEntry["api"])
	}
	if len(perEntry["worker"]) != 1 || perEntry["worker"][0] != "worker ready" {
		t.Fatalf("unexpected worker events: %v", perEntry["worker"])
	}
}

func TestMuxEmitsDropMetaEvents(t *testing.T) {
	mux := New(1)
	src := make(chan event.Event)

	mux.Add(src)

	done := make(chan struct{})
	go func() {
		src <- event.Event{Entry: "api", Type: event.EventTypeLog, Message: "line-1", Level: "info"}
		src <- event.Event{Entry: "api", Type: event.EventTypeLog, Message: "line-2", Level: "info"}
		src <- event.Event{Entry: "api", Type: event.EventTypeLog, Message: "line-3", Level: "info"}
		close(src)
		close(done)
	}()

	<-done

	go mux.Close()

	var events []event.Event
	for evt := range mux.Output() {
		events = append(events, evt)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events (1 log + 1 meta), got %d", len(events))
	}

	if events[0].Message != "line-1" {
		t.Fatalf("expected first event to be the original log, got %q", events[0].Message)
	}

	meta := events[1]
	if meta.Entry != "api" {
		t.Fatalf("meta event entry mismatch: got %s", meta.Entry)
	}
	if meta.Message != "dropped=2" {
		t.Fatalf("expected drop metadata, got %q", meta.Message)
	}
	if meta.Source != event.LogSourceSystem {
		t.Fatalf("expected meta source %q, got %s", event.LogSourceSystem, meta.Source)
	}
	if meta.Level != "warn" {
		t.Fatalf("expected meta level warn, got %s", meta.Level)
	}
	if time.Since(meta.Timestamp) > time.Second {
		t.Fatalf("expected recent timestamp, got %v", meta.Timestamp)
	}
}

func TestMuxNeverDropsLifecycleEvents(t *testing.T) {
	mux := New(1)
	src := make(chan event.Event)
	mux.Add(src)

	go func() {
		src <- event.Event{Entry: "api", Type: event.EventTypeLog, Message: "noise-1"}
		src <- event.Event{Entry: "api", Type: event.EventTypeLog, Message: "noise-2"}
		src <- event.Event{Entry: "api", Type: event.EventTypeExited, Message: "exit status 0"}
		close(src)
	}()

	go mux.Close()

	sawExit := false
	for evt := range mux.Output() {
		if evt.Type == event.EventTypeExited {
			sawExit = true
		}
	}
	if !sawExit {
		t.Fatal("expected lifecycle event to survive backpressure")
	}
}
