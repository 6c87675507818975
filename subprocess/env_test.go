package subprocess

import (
	"strings"
	"testing"
)

func environMap(env []string) map[string]string {
	out := make(map[string]string, len(env))
	for _, kv := range env {
		if name, value, ok := strings.Cut(kv, "="); ok {
			out[name] = value
		}
	}
	return out
}

func TestEnvBuilderAppliesDiff(t *testing.T) {
	t.Setenv("SUBPROC_KEEP", "inherited")
	t.Setenv("SUBPROC_DROP", "doomed")
	t.Setenv("SUBPROC_REPLACE", "old")

	b := NewEnvBuilder().
		Set("SUBPROC_REPLACE", "new").
		Set("SUBPROC_ADD", "fresh").
		Del("SUBPROC_DROP")

	env := environMap(b.Environ())
	if env["SUBPROC_KEEP"] != "inherited" {
		t.Fatalf("inherited variable lost: %q", env["SUBPROC_KEEP"])
	}
	if env["SUBPROC_REPLACE"] != "new" {
		t.Fatalf("override not applied: %q", env["SUBPROC_REPLACE"])
	}
	if env["SUBPROC_ADD"] != "fresh" {
		t.Fatalf("addition not applied: %q", env["SUBPROC_ADD"])
	}
	if _, ok := env["SUBPROC_DROP"]; ok {
		t.Fatal("deleted variable still present")
	}
}

func TestEnvBuilderSetAfterDel(t *testing.T) {
	b := NewEnvBuilder().Del("SUBPROC_X").Set("SUBPROC_X", "back")
	env := environMap(b.Environ())
	if env["SUBPROC_X"] != "back" {
		t.Fatalf("set after del lost: %q", env["SUBPROC_X"])
	}
}

func TestEnvBuilderDelAfterSet(t *testing.T) {
	b := NewEnvBuilder().Set("SUBPROC_Y", "gone").Del("SUBPROC_Y")
	if _, ok := environMap(b.Environ())["SUBPROC_Y"]; ok {
		t.Fatal("del after set left the variable behind")
	}
}

func TestEnvBuilderSnapshotIsStable(t *testing.T) {
	b := NewEnvBuilder().Set("SUBPROC_SNAP", "1")
	first := len(b.Environ())
	t.Setenv("SUBPROC_LATE", "2")
	second := len(b.Environ())
	if second != first+1 {
		t.Fatalf("expected later snapshot to see the new parent variable: %d vs %d", first, second)
	}
}

func TestGetpidPositive(t *testing.T) {
	if Getpid() <= 0 {
		t.Fatalf("expected positive pid, got %d", Getpid())
	}
}
