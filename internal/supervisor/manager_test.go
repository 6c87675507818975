package supervisor

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/Paintersrp/subproc/internal/config"
)

func TestManagerRunsAllEnabledEntries(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test requires a POSIX shell")
	}

	pf := &config.Procfile{
		Version: "1",
		Entries: map[string]*config.Entry{
			"one": {
				Command: []string{"/bin/sh", "-c", "echo from-one"},
				Restart: &config.RestartPolicy{Policy: "never"},
			},
			"two": {
				Command: []string{"/bin/sh", "-c", "echo from-two"},
				Restart: &config.RestartPolicy{Policy: "never"},
			},
			"off": {
				Command:  []string{"/bin/sh", "-c", "echo never-runs"},
				Disabled: true,
			},
		},
	}

	mgr := Start(context.Background(), pf)

	lines := make(map[string]string)
	timeout := time.After(10 * time.Second)
	for {
		select {
		case evt, ok := <-mgr.Events():
			if !ok {
				if err := mgr.Err(); err != nil {
					t.Fatalf("manager reported error: %v", err)
				}
				if lines["one"] != "from-one" || lines["two"] != "from-two" {
					t.Fatalf("missing output lines: %v", lines)
				}
				if _, ok := lines["off"]; ok {
					t.Fatal("disabled entry produced output")
				}
				return
			}
			if evt.Type == EventTypeLog && evt.Source == LogSourceStdout {
				lines[evt.Entry] = evt.Message
			}
		case <-timeout:
			t.Fatal("timed out waiting for manager to finish")
		}
	}
}

func TestManagerSurfacesEntryFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test requires a POSIX shell")
	}

	pf := &config.Procfile{
		Version: "1",
		Entries: map[string]*config.Entry{
			"bad": {
				Command: []string{"/bin/sh", "-c", "exit 7"},
				Restart: &config.RestartPolicy{Policy: "never"},
			},
		},
	}

	mgr := Start(context.Background(), pf)
	for range mgr.Events() {
	}
	if err := mgr.Err(); err == nil {
		t.Fatal("expected failure from non-zero exit")
	}
}
