package subprocess

import (
	"log/slog"
	"os"

	"github.com/Paintersrp/subproc/pipe"
)

// Console selects how a Windows child relates to a console. The value is
// accepted on every platform and ignored where no console concept exists.
type Console int

const (
	// ConsoleInherit attaches the child to the parent's console.
	ConsoleInherit Console = iota
	// ConsoleNew gives the child a fresh console.
	ConsoleNew
	// ConsoleDisable creates the child without any console window.
	ConsoleDisable
	// ConsoleDetached detaches the child from every console.
	ConsoleDetached
	// ConsoleHide attaches normally but hides the window.
	ConsoleHide
)

type redirectMode int

const (
	redirectInherit redirectMode = iota
	redirectFile
	redirectPipe
	redirectStdout
)

// Redirect describes the binding of one child standard-stream slot. The
// zero value inherits the parent's stream.
type Redirect struct {
	mode redirectMode
	file *os.File
}

// Inherit binds the slot to the parent's corresponding stream.
func Inherit() Redirect { return Redirect{} }

// UseFile binds the slot to a caller-supplied open file. The file is
// duplicated for the child, so the caller's handle and the child's use are
// independently closable.
func UseFile(f *os.File) Redirect { return Redirect{mode: redirectFile, file: f} }

// NewPipe binds the slot to a fresh pipe. The child receives one end and
// the parent-side end is returned on the Process (Stdin, Stdout or Stderr).
func NewPipe() Redirect { return Redirect{mode: redirectPipe} }

// ToStdout aliases the stderr slot to whatever handle the stdout slot
// resolved to, producing a single combined stream in write order. It is
// meaningful only for Stderr and only when Stdout is itself redirected;
// otherwise the slot falls back to inheriting.
func ToStdout() Redirect { return Redirect{mode: redirectStdout} }

// Options configures a single spawn. The struct is read once by Spawn;
// reusing it afterwards configures an independent, unrelated child.
type Options struct {
	// Args is the argument vector. Args[0] is the executable path, or a
	// bare name when SearchPath is set. Must be non-empty.
	Args []string

	// Dir is the child working directory. Empty inherits the parent's.
	Dir string

	// Env is the environment diff to apply over the parent environment.
	// Nil inherits the parent environment unchanged.
	Env *EnvBuilder

	// Stdin, Stdout and Stderr bind the three standard-stream slots.
	Stdin  Redirect
	Stdout Redirect
	Stderr Redirect

	// Suspended creates the child without letting it run until Resume.
	Suspended bool

	// Detached severs the child from the parent's session/process group so
	// its lifetime is not tied to the parent's.
	Detached bool

	// SearchPath resolves Args[0] through the OS executable search rules
	// instead of requiring a path.
	SearchPath bool

	// Console selects the Windows console mode.
	Console Console

	// HideWindow hides the child's window on Windows.
	HideWindow bool

	// Logger receives non-fatal diagnostics, currently only the
	// possible-zombie warning emitted when a still-running, un-detached
	// handle is closed. Nil uses slog.Default.
	Logger *slog.Logger
}

// stdio carries the per-slot resolution of the three standard streams.
type stdio struct {
	// child holds what each child slot maps to; entries are never nil.
	child [3]*os.File
	// owned lists files opened for this attempt that the parent must close
	// once the child holds its own copy (or the attempt failed).
	owned []*os.File
	// parent holds the pipe ends the caller retains.
	parent [3]*os.File
}

func (s *stdio) closeOwned() {
	for _, f := range s.owned {
		f.Close()
	}
	s.owned = nil
}

func (s *stdio) closeParent() {
	for _, f := range s.parent {
		if f != nil {
			f.Close()
		}
	}
	s.parent = [3]*os.File{}
}

// Spawn validates opts, resolves pipes and the environment snapshot, and
// invokes the platform process-creation primitive. On failure every
// resource allocated for the attempt is released and a *SpawnError (or
// ErrNoArgs) is returned; no partial process is left running.
func Spawn(opts Options) (*Process, error) {
	if len(opts.Args) == 0 {
		return nil, ErrNoArgs
	}

	sio, err := resolveStdio(&opts)
	if err != nil {
		return nil, err
	}

	var env []string
	if opts.Env != nil {
		env = opts.Env.Environ()
	} else {
		env = os.Environ()
	}

	p, err := startProcess(&opts, sio, env)
	if err != nil {
		sio.closeOwned()
		sio.closeParent()
		return nil, err
	}

	// The child owns its copies now; dropping ours guarantees readers of
	// the parent-side ends observe EOF once the child exits.
	sio.closeOwned()

	p.Stdin = sio.parent[0]
	p.Stdout = sio.parent[1]
	p.Stderr = sio.parent[2]
	if p.log == nil {
		p.log = slog.Default()
	}
	return p, nil
}

func resolveStdio(opts *Options) (*stdio, error) {
	sio := &stdio{}
	inherit := [3]*os.File{os.Stdin, os.Stdout, os.Stderr}
	slots := [3]Redirect{opts.Stdin, opts.Stdout, opts.Stderr}

	for i, r := range slots {
		switch r.mode {
		case redirectInherit:
			sio.child[i] = inherit[i]

		case redirectFile:
			if r.file == nil {
				sio.child[i] = inherit[i]
				continue
			}
			d, err := pipe.Dup(r.file)
			if err != nil {
				sio.closeOwned()
				sio.closeParent()
				return nil, spawnErr("duplicate stream", err)
			}
			sio.child[i] = d
			sio.owned = append(sio.owned, d)

		case redirectPipe:
			pp, err := pipe.Open()
			if err != nil {
				sio.closeOwned()
				sio.closeParent()
				return nil, spawnErr("open pipe", err)
			}
			if i == 0 {
				sio.child[i] = pp.R
				sio.parent[i] = pp.W
				sio.owned = append(sio.owned, pp.R)
			} else {
				sio.child[i] = pp.W
				sio.parent[i] = pp.R
				sio.owned = append(sio.owned, pp.W)
			}

		case redirectStdout:
			// Alias only applies to the error slot and only once stdout
			// resolved to an explicit handle.
			if i == 2 && slots[1].mode != redirectInherit {
				sio.child[2] = sio.child[1]
			} else {
				sio.child[i] = inherit[i]
			}
		}
	}
	return sio, nil
}
