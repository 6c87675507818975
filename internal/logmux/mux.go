package logmux

import (
	"fmt"
	"sync"
	"time"

	"github.com/Paintersrp/subproc/internal/event"
)

// Mux fans in events from multiple entry supervisors and delivers them via a
// bounded channel. Lifecycle events are always delivered; when downstream
// consumers cannot keep up and the output buffer would overflow, the mux drops
// log records and emits a synthesized warning event to surface the number of
// discarded entries.
type Mux struct {
	out chan event.Event

	mu     sync.Mutex
	drops  map[string]dropRecord
	inputs sync.WaitGroup
}

type dropRecord struct {
	count   int
	attempt int
}

// New constructs a mux backed by a channel of the provided size. A size of
// zero results in a minimally buffered channel.
func New(size int) *Mux {
	if size <= 0 {
		size = 1
	}
	return &Mux{
		out:   make(chan event.Event, size),
		drops: make(map[string]dropRecord),
	}
}

// Output exposes the muxed event channel.
func (m *Mux) Output() <-chan event.Event {
	return m.out
}

// Add registers a new source channel. The mux consumes events until the
// source channel is closed.
func (m *Mux) Add(source <-chan event.Event) {
	if source == nil {
		return
	}
	m.inputs.Add(1)
	go func() {
		defer m.inputs.Done()
		for evt := range source {
			if evt.Type == event.EventTypeLog {
				m.deliver(normalize(evt))
				continue
			}
			// Lifecycle events are rare and must not be lost.
			m.flushPending(evt.Entry)
			m.blockingSend(evt)
		}
	}()
}

// Close waits for all sources to be drained, emits any pending drop metadata,
// and closes the output channel.
func (m *Mux) Close() {
	m.inputs.Wait()
	m.flushDrops()
	close(m.out)
}

func (m *Mux) deliver(evt event.Event) {
	if !m.flushPending(evt.Entry) {
		m.recordDrop(evt.Entry, evt.Attempt)
		return
	}
	if m.trySend(evt) {
		return
	}
	m.recordDrop(evt.Entry, evt.Attempt)
}

func (m *Mux) flushPending(entry string) bool {
	for {
		rec := m.takeDrops(entry)
		if rec.count == 0 {
			return true
		}
		meta := synthesizeDropEvent(entry, rec)
		if m.trySend(meta) {
			continue
		}
		m.recordDropWithCount(entry, rec.count, rec.attempt)
		return false
	}
}

func (m *Mux) takeDrops(entry string) dropRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.drops[entry]
	if rec.count != 0 {
		delete(m.drops, entry)
	}
	return rec
}

func (m *Mux) recordDrop(entry string, attempt int) {
	m.recordDropWithCount(entry, 1, attempt)
}

func (m *Mux) recordDropWithCount(entry string, count int, attempt int) {
	if count <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.drops[entry]
	rec.count += count
	if attempt != 0 || rec.attempt == 0 {
		rec.attempt = attempt
	}
	m.drops[entry] = rec
}

func (m *Mux) flushDrops() {
	pending := m.collectDrops()
	for entry, rec := range pending {
		meta := synthesizeDropEvent(entry, rec)
		m.blockingSend(meta)
	}
}

func (m *Mux) collectDrops() map[string]dropRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.drops) == 0 {
		return nil
	}
	dup := make(map[string]dropRecord, len(m.drops))
	for entry, rec := range m.drops {
		if rec.count == 0 {
			continue
		}
		dup[entry] = rec
	}
	m.drops = make(map[string]dropRecord)
	return dup
}

func (m *Mux) trySend(evt event.Event) bool {
	select {
	case m.out <- evt:
		return true
	default:
		return false
	}
}

func (m *Mux) blockingSend(evt event.Event) {
	m.out <- evt
}

func normalize(evt event.Event) event.Event {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	if evt.Source == "" {
		evt.Source = event.LogSourceStdout
	}
	if evt.Level == "" {
		if evt.Source == event.LogSourceStderr {
			evt.Level = "warn"
		} else {
			evt.Level = "info"
		}
	}
	return evt
}

func synthesizeDropEvent(entry string, rec dropRecord) event.Event {
	return event.Event{
		Timestamp: time.Now(),
		Entry:     entry,
		Type:      event.EventTypeLog,
		Message:   fmt.Sprintf("dropped=%d", rec.count),
		Level:     "warn",
		Source:    event.LogSourceSystem,
		Attempt:   rec.attempt,
	}
}
