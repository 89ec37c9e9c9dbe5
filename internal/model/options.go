package model

import (
	"log/slog"

	"github.com/roach88/hidux/internal/value"
)

// Entry is one committed snapshot as seen by a Journal.
type Entry struct {
	InstanceID string
	Model      string
	Seq        int64
	State      *value.Map
}

// Journal records committed snapshots.
// A journal error is logged and never fails the write that produced it.
type Journal interface {
	Record(e Entry) error
}

// JournalFunc adapts a function to the Journal interface.
type JournalFunc func(e Entry) error

// Record calls f(e).
func (f JournalFunc) Record(e Entry) error {
	return f(e)
}

// Option configures an Instance.
type Option func(*Instance)

// WithLogger sets the instance logger.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(in *Instance) {
		if l != nil {
			in.log = l
		}
	}
}

// WithClock sets the clock that stamps snapshots.
// Default: NewClock().
func WithClock(c Clock) Option {
	return func(in *Instance) {
		if c != nil {
			in.clock = c
		}
	}
}

// WithIDGenerator sets the instance id source.
// Default: UUIDv7Generator{}.
func WithIDGenerator(g IDGenerator) Option {
	return func(in *Instance) {
		if g != nil {
			in.ids = g
		}
	}
}

// WithJournal records every committed snapshot in j.
func WithJournal(j Journal) Option {
	return func(in *Instance) {
		in.journal = j
	}
}
