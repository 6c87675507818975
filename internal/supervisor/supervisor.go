package supervisor

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/Paintersrp/subproc/internal/config"
	"github.com/Paintersrp/subproc/internal/metrics"
	"github.com/Paintersrp/subproc/subprocess"
)

const (
	defaultBackoffMin    = time.Second
	defaultBackoffMax    = 30 * time.Second
	defaultBackoffFactor = 2.0
	defaultStopGrace     = 2 * time.Second
)

type restartPolicy struct {
	mode       string
	maxRetries int
	min        time.Duration
	max        time.Duration
	factor     float64
}

// Supervisor manages the lifecycle of a single manifest entry: it spawns
// the process with piped output, streams its lines as events, observes the
// exit status and restarts according to the configured policy.
type Supervisor struct {
	name   string
	entry  *config.Entry
	events chan<- Event
	policy restartPolicy
	grace  time.Duration

	jitter func(time.Duration) time.Duration
	sleep  func(context.Context, time.Duration) error
}

// New constructs a supervisor for one entry. Events are delivered on the
// provided channel; the caller owns its lifetime.
func New(name string, entry *config.Entry, grace time.Duration, events chan<- Event) *Supervisor {
	if grace <= 0 {
		grace = defaultStopGrace
	}
	return &Supervisor{
		name:   name,
		entry:  entry,
		events: events,
		policy: derivePolicy(entry),
		grace:  grace,
		jitter: defaultJitter,
		sleep:  sleepWithContext,
	}
}

func derivePolicy(entry *config.Entry) restartPolicy {
	pol := restartPolicy{
		mode:       "on-failure",
		maxRetries: 3,
		min:        defaultBackoffMin,
		max:        defaultBackoffMax,
		factor:     defaultBackoffFactor,
	}
	if entry == nil || entry.Restart == nil {
		return pol
	}
	rp := entry.Restart
	if rp.Policy != "" {
		pol.mode = rp.Policy
	}
	if rp.MaxRetries != 0 {
		pol.maxRetries = rp.MaxRetries
	}
	if rp.Backoff != nil {
		if rp.Backoff.Min.Duration > 0 {
			pol.min = rp.Backoff.Min.Duration
		}
		if rp.Backoff.Max.Duration > 0 {
			pol.max = rp.Backoff.Max.Duration
		}
		if rp.Backoff.Factor > 0 {
			pol.factor = rp.Backoff.Factor
		}
	}
	if pol.max < pol.min {
		pol.max = pol.min
	}
	return pol
}

// Run drives the entry until it stops restarting or ctx is cancelled.
// A non-nil return means the entry ended in failure.
func (s *Supervisor) Run(ctx context.Context) error {
	attempt := 0
	delay := s.policy.min
	reason := ReasonInitialStart

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		attempt++
		sendEvent(s.events, s.name, 0, EventTypeStarting, fmt.Sprintf("starting %s", s.name), attempt, reason, nil)

		success, runErr := s.runOnce(ctx, attempt)
		if ctx.Err() != nil {
			return nil
		}
		if success && s.policy.mode != "always" {
			return nil
		}
		if !s.shouldRestart(attempt) {
			if success {
				return nil
			}
			sendEvent(s.events, s.name, 0, EventTypeFailed, fmt.Sprintf("%s gave up after %d attempts", s.name, attempt), attempt, ReasonRetriesExhaust, runErr)
			return fmt.Errorf("entry %s: retries exhausted: %w", s.name, runErr)
		}

		d := s.jitter(delay)
		sendEvent(s.events, s.name, 0, EventTypeRestarting, fmt.Sprintf("restarting %s in %s", s.name, d.Round(time.Millisecond)), attempt, ReasonRestart, runErr)
		metrics.IncrementRestart(s.name)
		if err := s.sleep(ctx, d); err != nil {
			return nil
		}
		delay = nextDelay(delay, s.policy)
		reason = ReasonRestart
	}
}

func (s *Supervisor) shouldRestart(attempt int) bool {
	switch s.policy.mode {
	case "never":
		return false
	case "on-failure", "always":
		if s.policy.maxRetries < 0 {
			return true
		}
		return attempt <= s.policy.maxRetries
	}
	return false
}

type waitResult struct {
	status subprocess.ExitStatus
	err    error
}

// runOnce spawns the entry and blocks until it exits or ctx is cancelled.
// It reports whether the run ended in a clean exit.
func (s *Supervisor) runOnce(ctx context.Context, attempt int) (bool, error) {
	proc, err := s.spawn()
	if err != nil {
		metrics.IncrementSpawnFailure(s.name)
		sendEvent(s.events, s.name, 0, EventTypeFailed, fmt.Sprintf("spawn %s: %v", s.name, err), attempt, ReasonSpawnFailure, err)
		return false, err
	}
	metrics.IncrementSpawn(s.name)
	metrics.SetRunning(s.name, true)
	defer metrics.SetRunning(s.name, false)
	sendEvent(s.events, s.name, proc.ID(), EventTypeStarted, fmt.Sprintf("%s started (pid %d)", s.name, proc.ID()), attempt, "", nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go s.streamLogs(proc.Stdout, proc.ID(), LogSourceStdout, &wg)
	go s.streamLogs(proc.Stderr, proc.ID(), LogSourceStderr, &wg)

	waitCh := make(chan waitResult, 1)
	go func() {
		st, err := proc.Wait()
		waitCh <- waitResult{status: st, err: err}
	}()

	var res waitResult
	select {
	case <-ctx.Done():
		res = s.stop(proc, waitCh)
		wg.Wait()
		proc.Close()
		sendEvent(s.events, s.name, proc.ID(), EventTypeStopped, fmt.Sprintf("%s stopped", s.name), attempt, ReasonShutdown, nil)
		return res.err == nil && res.status.Success(), nil
	case res = <-waitCh:
	}
	wg.Wait()
	pid := proc.ID()
	proc.Close()

	if res.err != nil {
		sendEvent(s.events, s.name, pid, EventTypeExited, fmt.Sprintf("%s wait failed", s.name), attempt, ReasonEntryExit, res.err)
		return false, res.err
	}
	metrics.ObserveExit(s.name, res.status.Success())
	sendEvent(s.events, s.name, pid, EventTypeExited, fmt.Sprintf("%s exited (%s)", s.name, res.status), attempt, ReasonEntryExit, nil)
	if res.status.Success() {
		return true, nil
	}
	return false, fmt.Errorf("entry %s: %s", s.name, res.status)
}

func (s *Supervisor) spawn() (*subprocess.Process, error) {
	var env *subprocess.EnvBuilder
	if len(s.entry.Env) > 0 || len(s.entry.EnvRemove) > 0 {
		env = subprocess.NewEnvBuilder()
		for k, v := range s.entry.Env {
			env.Set(k, v)
		}
		for _, k := range s.entry.EnvRemove {
			env.Del(k)
		}
	}
	return subprocess.Spawn(subprocess.Options{
		Args:       s.entry.Command,
		Dir:        s.entry.Cwd,
		Env:        env,
		Stdout:     subprocess.NewPipe(),
		Stderr:     subprocess.NewPipe(),
		SearchPath: s.entry.SearchPath,
		Detached:   s.entry.Detached,
	})
}

// stop asks the child to terminate, escalating after the grace period. The
// pending wait goroutine performs the reap.
func (s *Supervisor) stop(proc *subprocess.Process, waitCh <-chan waitResult) waitResult {
	_ = proc.Terminate()
	if fired, err := subprocess.SelectTimeout([]*subprocess.Process{proc}, s.grace); err == nil && !fired {
		_ = proc.Kill(syscall.SIGKILL)
	}
	return <-waitCh
}

func (s *Supervisor) streamLogs(r *os.File, pid int, source string, wg *sync.WaitGroup) {
	defer wg.Done()
	if r == nil {
		return
	}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		evt := Event{
			Timestamp: time.Now(),
			Entry:     s.name,
			Pid:       pid,
			Type:      EventTypeLog,
			Message:   scanner.Text(),
			Source:    source,
		}
		if source == LogSourceStderr {
			evt.Level = "warn"
		}
		if s.events != nil {
			s.events <- evt
		}
	}
}

func nextDelay(current time.Duration, pol restartPolicy) time.Duration {
	next := time.Duration(math.Ceil(float64(current) * pol.factor))
	if next > pol.max {
		return pol.max
	}
	if next < pol.min {
		return pol.min
	}
	return next
}

func defaultJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	// Up to 25% of spread keeps synchronized restarts apart.
	spread := int64(d / 4)
	if spread == 0 {
		return d
	}
	return d + time.Duration(rand.Int63n(spread))
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
