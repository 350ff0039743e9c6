package dp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Tracer is an append-only log of human-readable milestones recorded while
// solving. It is purely observational: nothing in the solver reads it back.
//
// A nil *Tracer is valid and discards everything, so primitives can trace
// unconditionally:
//
//	tr.Logf("iteration %d: %s", i, s)
//	sub := tr.Child("loop") // also nil when tr is nil
//
// Tracers are safe for concurrent use.
type Tracer struct {
	mu      sync.Mutex
	name    string
	entries []traceEntry
	logger  *slog.Logger
}

type traceEntry struct {
	msg   string
	child *Tracer
}

// NewTracer returns an empty tracer. If logger is non-nil every message is
// mirrored to it at debug level.
func NewTracer(name string, logger *slog.Logger) *Tracer {
	return &Tracer{name: name, logger: logger}
}

// Log appends a message.
func (t *Tracer) Log(msg string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.entries = append(t.entries, traceEntry{msg: msg})
	t.mu.Unlock()
	if t.logger != nil && t.logger.Enabled(context.Background(), slog.LevelDebug) {
		t.logger.Debug(msg, "trace", t.name)
	}
}

// Logf appends a formatted message.
func (t *Tracer) Logf(format string, args ...any) {
	if t == nil {
		return
	}
	t.Log(fmt.Sprintf(format, args...))
}

// Child appends and returns a nested tracer.
func (t *Tracer) Child(name string) *Tracer {
	if t == nil {
		return nil
	}
	c := &Tracer{name: t.name + "/" + name, logger: t.logger}
	t.mu.Lock()
	t.entries = append(t.entries, traceEntry{child: c})
	t.mu.Unlock()
	return c
}

// Lines returns every message, children indented under their parent.
func (t *Tracer) Lines() []string {
	if t == nil {
		return nil
	}
	var out []string
	t.collect(&out, 0)
	return out
}

func (t *Tracer) collect(out *[]string, depth int) {
	t.mu.Lock()
	entries := append([]traceEntry(nil), t.entries...)
	t.mu.Unlock()
	indent := strings.Repeat("  ", depth)
	for _, e := range entries {
		if e.child != nil {
			*out = append(*out, indent+"["+e.child.name+"]")
			e.child.collect(out, depth+1)
			continue
		}
		*out = append(*out, indent+e.msg)
	}
}

// Contains reports whether any message contains substr.
func (t *Tracer) Contains(substr string) bool {
	for _, l := range t.Lines() {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

func (t *Tracer) String() string {
	return strings.Join(t.Lines(), "\n")
}
