// Package trace provides the context-carried, levelled logger used by every
// filegen package. A Tracer travels inside a context.Context so that deep
// callers such as the file session can log without being handed a logger.
package trace

import (
	"context"
	"fmt"
	"io"
	"log"
)

// LogLevel represents tracing verbosity level
type LogLevel int

const (
	// LogLevelQuiet suppresses everything but warnings and errors
	LogLevelQuiet LogLevel = iota - 1
	// LogLevelNormal for regular user-facing messages
	LogLevelNormal
	// LogLevelVerbose for per-file progress and debug info
	LogLevelVerbose
	// LogLevelTrace for per-chunk output
	LogLevelTrace
)

type traceKeyType string

const traceKey traceKeyType = "tracer"

// Tracer provides a context-aware tracing interface
type Tracer struct {
	prefix  string
	level   LogLevel
	verbose bool
	out     *log.Logger
}

// NewTracer creates a new tracer instance writing through the standard logger
func NewTracer(prefix string, level LogLevel) *Tracer {
	return &Tracer{
		prefix:  prefix,
		level:   level,
		verbose: level >= LogLevelVerbose,
	}
}

// SetOutput sends this tracer's output to w without timestamps. Tracers
// derived afterwards with WithPrefix share the same writer.
func (t *Tracer) SetOutput(w io.Writer) {
	t.out = log.New(w, "", 0)
}

func (t *Tracer) print(msg string) {
	if t.out != nil {
		t.out.Print(msg)
		return
	}
	log.Print(msg)
}

func (t *Tracer) emit(tag, msg string) {
	switch {
	case t.prefix != "" && tag != "":
		t.print(fmt.Sprintf("%s %s: %s", t.prefix, tag, msg))
	case t.prefix != "":
		t.print(fmt.Sprintf("%s: %s", t.prefix, msg))
	case tag != "":
		t.print(fmt.Sprintf("%s: %s", tag, msg))
	default:
		t.print(msg)
	}
}

// Tracef logs a message at the TRACE level (most verbose)
func (t *Tracer) Tracef(format string, args ...interface{}) {
	if t.level < LogLevelTrace {
		return
	}
	t.emit("TRACE", fmt.Sprintf(format, args...))
}

// WithContext adds the tracer to the given context
func WithContext(ctx context.Context, tracer *Tracer) context.Context {
	return context.WithValue(ctx, traceKey, tracer)
}

// FromContext extracts the tracer from the context
func FromContext(ctx context.Context) *Tracer {
	if tracer, ok := ctx.Value(traceKey).(*Tracer); ok {
		return tracer
	}
	// Return a default tracer if none found in context
	return NewTracer("", LogLevelNormal)
}

// SetVerbose updates the verbose flag
func (t *Tracer) SetVerbose(verbose bool) {
	t.verbose = verbose
	if verbose {
		t.level = LogLevelVerbose
	} else {
		t.level = LogLevelNormal
	}
}

// IsVerbose returns whether verbose tracing is enabled
func (t *Tracer) IsVerbose() bool {
	return t.verbose
}

// Level returns the current verbosity
func (t *Tracer) Level() LogLevel {
	return t.level
}

// Infof logs a formatted message at normal level
func (t *Tracer) Infof(format string, args ...interface{}) {
	if t.level < LogLevelNormal {
		return
	}
	t.emit("", fmt.Sprintf(format, args...))
}

// Debugf logs a formatted message only if verbose is enabled
func (t *Tracer) Debugf(format string, args ...interface{}) {
	if !t.verbose {
		return
	}
	t.emit("", fmt.Sprintf(format, args...))
}

// Warnf logs a formatted warning regardless of level
func (t *Tracer) Warnf(format string, args ...interface{}) {
	t.emit("WARNING", fmt.Sprintf(format, args...))
}

// Error logs an error message
func (t *Tracer) Error(err error) {
	t.emit("ERROR", err.Error())
}

// WithPrefix creates a new tracer with the given prefix
func (t *Tracer) WithPrefix(prefix string) *Tracer {
	return &Tracer{
		prefix:  prefix,
		level:   t.level,
		verbose: t.verbose,
		out:     t.out,
	}
}
