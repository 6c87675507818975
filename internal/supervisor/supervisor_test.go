package supervisor

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/Paintersrp/subproc/internal/config"
)

func shellEntry(t *testing.T, script string) *config.Entry {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test requires a POSIX shell")
	}
	return &config.Entry{
		Command: []string{"/bin/sh", "-c", script},
	}
}

func collectEvents(t *testing.T, events <-chan Event, done <-chan error) ([]Event, error) {
	t.Helper()
	var got []Event
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return got, <-done
			}
			got = append(got, evt)
		case <-time.After(10 * time.Second):
			t.Fatalf("timed out collecting events, have %d", len(got))
		}
	}
}

func runSupervisor(ctx context.Context, sup *Supervisor, events chan Event) <-chan error {
	done := make(chan error, 1)
	go func() {
		err := sup.Run(ctx)
		close(events)
		done <- err
	}()
	return done
}

func TestRunOnceCleanExit(t *testing.T) {
	entry := shellEntry(t, "echo hello; echo oops >&2")
	entry.Restart = &config.RestartPolicy{Policy: "never"}

	events := make(chan Event, 64)
	sup := New("web", entry, time.Second, events)

	done := runSupervisor(context.Background(), sup, events)
	got, err := collectEvents(t, events, done)
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	var sawStarted, sawStdout, sawStderr, sawExited bool
	for _, evt := range got {
		switch {
		case evt.Type == EventTypeStarted:
			sawStarted = true
			if evt.Pid <= 0 {
				t.Fatalf("started event missing pid: %+v", evt)
			}
		case evt.Type == EventTypeLog && evt.Source == LogSourceStdout:
			if evt.Message != "hello" {
				t.Fatalf("unexpected stdout line %q", evt.Message)
			}
			sawStdout = true
		case evt.Type == EventTypeLog && evt.Source == LogSourceStderr:
			if evt.Level != "warn" {
				t.Fatalf("stderr line should default to warn, got %q", evt.Level)
			}
			sawStderr = true
		case evt.Type == EventTypeExited:
			sawExited = true
		}
	}
	if !sawStarted || !sawStdout || !sawStderr || !sawExited {
		t.Fatalf("missing events: started=%v stdout=%v stderr=%v exited=%v", sawStarted, sawStdout, sawStderr, sawExited)
	}
}

func TestRunRestartsUntilRetriesExhausted(t *testing.T) {
	entry := shellEntry(t, "exit 3")
	entry.Restart = &config.RestartPolicy{Policy: "on-failure", MaxRetries: 2}

	events := make(chan Event, 256)
	sup := New("flaky", entry, time.Second, events)
	sup.jitter = func(d time.Duration) time.Duration { return time.Millisecond }
	sup.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	done := runSupervisor(context.Background(), sup, events)
	got, err := collectEvents(t, events, done)
	if err == nil {
		t.Fatal("expected a retries-exhausted error")
	}

	restarts := 0
	failed := false
	for _, evt := range got {
		if evt.Type == EventTypeRestarting {
			restarts++
		}
		if evt.Type == EventTypeFailed && evt.Reason == ReasonRetriesExhaust {
			failed = true
		}
	}
	if restarts != 2 {
		t.Fatalf("expected 2 restart events, got %d", restarts)
	}
	if !failed {
		t.Fatal("expected a terminal failed event")
	}
}

func TestRunNeverPolicyDoesNotRestart(t *testing.T) {
	entry := shellEntry(t, "exit 1")
	entry.Restart = &config.RestartPolicy{Policy: "never"}

	events := make(chan Event, 64)
	sup := New("oneshot", entry, time.Second, events)

	done := runSupervisor(context.Background(), sup, events)
	got, err := collectEvents(t, events, done)
	if err == nil {
		t.Fatal("expected failure from non-zero exit")
	}
	for _, evt := range got {
		if evt.Type == EventTypeRestarting {
			t.Fatalf("unexpected restart event: %+v", evt)
		}
	}
}

func TestRunStopsChildOnCancel(t *testing.T) {
	entry := shellEntry(t, "exec sleep 30")
	entry.Restart = &config.RestartPolicy{Policy: "always", MaxRetries: -1}

	events := make(chan Event, 64)
	sup := New("long", entry, 500*time.Millisecond, events)

	ctx, cancel := context.WithCancel(context.Background())
	done := runSupervisor(ctx, sup, events)

	// Wait for the child to be up before cancelling.
	started := make(chan struct{})
	drained := make(chan struct{})
	var collected []Event
	go func() {
		defer close(drained)
		for evt := range events {
			collected = append(collected, evt)
			if evt.Type == EventTypeStarted {
				select {
				case started <- struct{}{}:
				default:
				}
			}
		}
	}()

	select {
	case <-started:
	case <-time.After(10 * time.Second):
		t.Fatal("child never started")
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("cancelled run should return nil, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("supervisor did not stop after cancel")
	}

	<-drained

	sawStopped := false
	for _, evt := range collected {
		if evt.Type == EventTypeStopped {
			sawStopped = true
		}
	}
	if !sawStopped {
		t.Fatalf("expected a stopped event, got %+v", collected)
	}
}

func TestDerivePolicyDefaultsAndClamping(t *testing.T) {
	pol := derivePolicy(nil)
	if pol.mode != "on-failure" || pol.maxRetries != 3 {
		t.Fatalf("unexpected defaults: %+v", pol)
	}

	entry := &config.Entry{
		Restart: &config.RestartPolicy{
			Policy: "always",
			Backoff: &config.Backoff{
				Min: config.Duration{Duration: 10 * time.Second},
				Max: config.Duration{Duration: time.Second},
			},
		},
	}
	pol = derivePolicy(entry)
	if pol.max != pol.min {
		t.Fatalf("expected max clamped to min, got min=%v max=%v", pol.min, pol.max)
	}
}

func TestNextDelayRespectsBounds(t *testing.T) {
	pol := restartPolicy{min: time.Second, max: 4 * time.Second, factor: 2}

	d := nextDelay(time.Second, pol)
	if d != 2*time.Second {
		t.Fatalf("expected 2s, got %v", d)
	}
	d = nextDelay(3*time.Second, pol)
	if d != 4*time.Second {
		t.Fatalf("expected clamp to 4s, got %v", d)
	}
	d = nextDelay(100*time.Millisecond, pol)
	if d != time.Second {
		t.Fatalf("expected floor at 1s, got %v", d)
	}
}
