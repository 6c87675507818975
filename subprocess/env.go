package subprocess

import (
	"os"
	"strings"
)

// EnvBuilder accumulates a set/delete diff to apply over the parent
// environment. The diff is materialized by Environ at spawn time, so the
// child sees the parent environment as it exists then, never a live view.
type EnvBuilder struct {
	set  map[string]string
	del  map[string]struct{}
	keys []string
}

// NewEnvBuilder returns an empty environment diff.
func NewEnvBuilder() *EnvBuilder {
	return &EnvBuilder{
		set: make(map[string]string),
		del: make(map[string]struct{}),
	}
}

// Set records an override for name. A later Set for the same name replaces
// the earlier value; a later Del removes it.
func (b *EnvBuilder) Set(name, value string) *EnvBuilder {
	if _, ok := b.set[name]; !ok {
		b.keys = append(b.keys, name)
	}
	b.set[name] = value
	delete(b.del, name)
	return b
}

// Del records that name must be absent from the child environment even if
// the parent defines it.
func (b *EnvBuilder) Del(name string) *EnvBuilder {
	if _, ok := b.set[name]; ok {
		delete(b.set, name)
		for i, k := range b.keys {
			if k == name {
				b.keys = append(b.keys[:i], b.keys[i+1:]...)
				break
			}
		}
	}
	b.del[name] = struct{}{}
	return b
}

// Environ snapshots the parent environment with the diff applied. Inherited
// variables keep their relative order; overrides that introduce new names
// are appended in the order they were first Set.
func (b *EnvBuilder) Environ() []string {
	parent := os.Environ()
	out := make([]string, 0, len(parent)+len(b.set))
	seen := make(map[string]struct{}, len(b.set))
	for _, kv := range parent {
		name, _, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if _, drop := b.del[name]; drop {
			continue
		}
		if v, override := b.set[name]; override {
			out = append(out, name+"="+v)
			seen[name] = struct{}{}
			continue
		}
		out = append(out, kv)
	}
	for _, name := range b.keys {
		if _, done := seen[name]; done {
			continue
		}
		out = append(out, name+"="+b.set[name])
	}
	return out
}

// Setenv sets a variable in the current process so that it is inherited by
// future children. It is orthogonal to the spawn-time diff, which never
// mutates the parent environment.
func Setenv(name, value string) error {
	return os.Setenv(name, value)
}

// Getpid returns the current process identifier.
func Getpid() int {
	return os.Getpid()
}
