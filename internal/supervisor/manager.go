package supervisor

import (
	"context"
	"sync"

	"github.com/Paintersrp/subproc/internal/config"
	"github.com/Paintersrp/subproc/internal/logmux"
)

// Manager runs one supervisor per enabled manifest entry and fans their
// events into a single muxed stream.
type Manager struct {
	mux  *logmux.Mux
	wg   sync.WaitGroup
	errs chan error
}

// Start launches every enabled entry of the manifest. The returned manager
// exposes the muxed event stream; it closes once all supervisors finish.
func Start(ctx context.Context, pf *config.Procfile) *Manager {
	names := pf.EntriesSorted()
	m := &Manager{
		mux:  logmux.New(256),
		errs: make(chan error, len(names)),
	}
	grace := pf.Defaults.StopGracePeriod.Duration

	for _, name := range names {
		entry := pf.Entries[name]
		if entry == nil || entry.Disabled {
			continue
		}
		events := make(chan Event, 64)
		m.mux.Add(events)
		sup := New(name, entry, grace, events)
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			defer close(events)
			if err := sup.Run(ctx); err != nil {
				m.errs <- err
			}
		}()
	}

	go func() {
		m.wg.Wait()
		close(m.errs)
		m.mux.Close()
	}()
	return m
}

// Events exposes the muxed event stream. It is closed after every
// supervisor has finished.
func (m *Manager) Events() <-chan Event {
	return m.mux.Output()
}

// Err reports the first supervisor failure, once Events has closed.
func (m *Manager) Err() error {
	for err := range m.errs {
		if err != nil {
			return err
		}
	}
	return nil
}
