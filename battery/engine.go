// Package battery holds the state of the emulated battery and AC adapter,
// applies control writes to it and answers property reads.
//
// A control write is a batch of "key = value" lines applied as a single
// transaction: either every line is applied and the derived status and
// capacity level are recomputed, or the write is rejected and the state is
// left as it was. Readers always see a complete state, never one that is
// half way through a batch.
package battery

import (
	"sync"
	"sync/atomic"
)

const (
	// MaxBatchSize is the largest control write accepted, in bytes.
	MaxBatchSize = 1024

	// Identity is returned by the identification channel.
	Identity = "Pi battery information!"
)

// Notifier is told about each logical device after a write has been applied.
type Notifier interface {
	Changed(supply Supply)
}

// Engine owns the battery and AC state.
type Engine struct {
	writeMu  sync.Mutex
	state    atomic.Pointer[State]
	notifier Notifier
}

// NewEngine returns an engine in its initial state. n may be nil.
func NewEngine(n Notifier) *Engine {
	e := &Engine{notifier: n}
	initial := NewState()
	e.state.Store(&initial)
	return e
}

// WriteAt applies a control batch. The batch has to arrive complete in one
// call at offset 0; a write made while another one is still being applied is
// refused rather than queued.
func (e *Engine) WriteAt(p []byte, off int64) (int, error) {
	if off != 0 {
		return 0, batchError(ErrPartialWrite)
	}
	if len(p) > MaxBatchSize {
		return 0, batchError(ErrBatchTooLarge)
	}
	if !e.writeMu.TryLock() {
		return 0, batchError(ErrBusy)
	}
	defer e.writeMu.Unlock()

	assignments, err := ParseBatch(p)
	if err != nil {
		return 0, err
	}

	next := *e.state.Load()
	for _, a := range assignments {
		a.apply(&next)
	}
	next.derive()
	e.state.Store(&next)

	if e.notifier != nil {
		for _, s := range Supplies {
			e.notifier.Changed(s)
		}
	}
	return len(p), nil
}

// Write applies a control batch, see WriteAt.
func (e *Engine) Write(p []byte) (int, error) {
	return e.WriteAt(p, 0)
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() State {
	return *e.state.Load()
}

// Property reads a single property. Properties the supply does not report
// return an error matching ErrUnsupportedProperty.
func (e *Engine) Property(supply Supply, p Property) (Value, error) {
	return e.state.Load().property(supply, p)
}

// Properties reads every supported property of a supply from one snapshot.
func (e *Engine) Properties(supply Supply) ([]Field, error) {
	if _, err := ParseSupply(string(supply)); err != nil {
		return nil, err
	}
	s := e.state.Load()
	props := SupportedProperties(supply)
	fields := make([]Field, 0, len(props))
	for _, p := range props {
		v, err := s.property(supply, p)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Property: p, Value: v})
	}
	return fields, nil
}

// Identify returns the fixed identification string.
func (e *Engine) Identify() string {
	return Identity
}
