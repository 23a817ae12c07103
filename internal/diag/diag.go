// Package diag implements the log message model: coded, positioned messages
// collected in a Sink. The compiler and pipeline return their failures as
// errors (a compile stops at the first one); the pipeline also reports its
// stage transitions and failures here as messages.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tsn-lang/tsn/internal/source"
)

// Prefix identifies which subsystem raised a message.
type Prefix byte

const (
	PrefixCompiler Prefix = 'C'
	PrefixParser   Prefix = 'P'
	PrefixIO       Prefix = 'I'
	PrefixGeneric  Prefix = 'G'
)

// Severity classifies a Message.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Message is one diagnostic: a numeric code under its prefix, a severity, a
// source range, and a human-readable message.
type Message struct {
	Prefix   Prefix
	Code     int
	Severity Severity
	Pos      source.Position
	Text     string
}

// Code_ returns the combined code, e.g. "C0142".
func (m Message) Code_() string { return fmt.Sprintf("%c%04d", m.Prefix, m.Code) }

func (m Message) String() string {
	return fmt.Sprintf("%s: %s: %s [%s]", m.Pos, m.Severity, m.Text, m.Code_())
}

// Sink collects messages during a compile. It never panics or stops
// collection — the aggregate is inspected by the caller once a stage ends.
type Sink struct {
	messages []Message
}

// NewSink returns an empty Sink.
func NewSink() *Sink { return &Sink{} }

// Report appends a message.
func (s *Sink) Report(m Message) { s.messages = append(s.messages, m) }

// Errorf is a convenience wrapper for reporting a compiler (C-prefixed)
// error-severity message at pos.
func (s *Sink) Errorf(pos source.Position, code int, format string, args ...any) {
	s.Report(Message{Prefix: PrefixCompiler, Code: code, Severity: Error, Pos: pos, Text: fmt.Sprintf(format, args...)})
}

// Warnf reports a compiler warning.
func (s *Sink) Warnf(pos source.Position, code int, format string, args ...any) {
	s.Report(Message{Prefix: PrefixCompiler, Code: code, Severity: Warning, Pos: pos, Text: fmt.Sprintf(format, args...)})
}

// Infof reports a compiler info message.
func (s *Sink) Infof(pos source.Position, code int, format string, args ...any) {
	s.Report(Message{Prefix: PrefixCompiler, Code: code, Severity: Info, Pos: pos, Text: fmt.Sprintf(format, args...)})
}

// Messages returns all reported messages in report order.
func (s *Sink) Messages() []Message { return s.messages }

// HasErrors reports whether any Error-severity message was recorded.
func (s *Sink) HasErrors() bool {
	for _, m := range s.messages {
		if m.Severity == Error {
			return true
		}
	}
	return false
}

// Format renders every message, sorted by position, one per line.
func Format(msgs []Message) string {
	sorted := make([]Message, len(msgs))
	copy(sorted, msgs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Pos.Line != sorted[j].Pos.Line {
			return sorted[i].Pos.Line < sorted[j].Pos.Line
		}
		return sorted[i].Pos.Column < sorted[j].Pos.Column
	})
	var b strings.Builder
	for i, m := range sorted {
		b.WriteString(m.String())
		if i < len(sorted)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
