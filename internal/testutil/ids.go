package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// SequentialIDs hands out "<prefix>-1", "<prefix>-2", ... and never runs
// out. It satisfies model.IDGenerator.
//
// Golden traces depend on stable instance ids; use this wherever a test may
// create an unknown number of instances.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix becomes "instance".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "instance"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
