// Package session holds the state of one validation run: the diagnostics
// sink, the running counters and the exit-first policy. A Session is created
// per top-level invocation and passed explicitly to every validator.
package session

import (
	"fmt"

	"github.com/MSLNZ/msl-equipment-sub004/diag"
)

// Counter names used in Summary.Counts.
const (
	CountRegister        = "register"
	CountConnections     = "connections"
	CountEquipment       = "equipment"
	CountConnection      = "connection"
	CountDigitalReport   = "digitalReport"
	CountFile            = "file"
	CountEquation        = "equation"
	CountSerialised      = "serialised"
	CountTable           = "table"
	CountCVDCoefficients = "cvdCoefficients"
)

// CountOrder is the order counters are listed in a summary.
var CountOrder = []string{
	CountConnection, CountConnections, CountCVDCoefficients, CountDigitalReport,
	CountEquation, CountEquipment, CountFile, CountRegister, CountSerialised,
	CountTable,
}

// Summary is the per-run tally.
type Summary struct {
	Counts       map[string]int `json:"counts"`
	Issues       int            `json:"issues"`
	SchemaIssues int            `json:"schema_issues"`
	Skipped      int            `json:"skipped"`
	Warnings     int            `json:"warnings"`

	UncheckedEquipment        []diag.Location `json:"unchecked_equipment"`
	UncheckedReport           []diag.Location `json:"unchecked_report"`
	UncheckedPerformanceCheck []diag.Location `json:"unchecked_performance_check"`
}

// Additional is the number of issues not raised by the schema engine.
func (s Summary) Additional() int { return s.Issues - s.SchemaIssues }

// Session is the mutable state of one run. It is not safe for concurrent use;
// the orchestrator is its single writer.
type Session struct {
	Sink      *diag.Sink
	ExitFirst bool

	summary Summary
	issues  diag.Issues
}

// New returns a session that writes through sink.
func New(sink *diag.Sink, exitFirst bool) *Session {
	if sink == nil {
		sink = diag.Nop()
	}
	return &Session{
		Sink:      sink,
		ExitFirst: exitFirst,
		summary:   Summary{Counts: map[string]int{}},
	}
}

// Stop reports whether validation must halt: exit-first is enabled and an
// issue has been recorded.
func (s *Session) Stop() bool { return s.ExitFirst && s.summary.Issues > 0 }

// Count adds n to a named element counter.
func (s *Session) Count(name string, n int) { s.summary.Counts[name] += n }

// Skip records a skipped validation.
func (s *Session) Skip() { s.summary.Skipped++ }

// Report records an issue and emits it through the sink. The issue counter is
// incremented even when the error level is silenced.
func (s *Session) Report(it diag.Issue) {
	s.summary.Issues++
	if it.Code == diag.CodeSchema {
		s.summary.SchemaIssues++
	}
	s.issues = append(s.issues, it)
	s.Sink.ErrorAt(it.Location(), it.Message)
}

// Errorf is Report with a formatted message.
func (s *Session) Errorf(loc diag.Location, code, format string, args ...any) {
	s.Report(diag.Issue{
		File:    loc.File,
		Line:    loc.Line,
		Column:  loc.Column,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	})
}

// WarnAt emits a warning anchored to loc and counts it.
func (s *Session) WarnAt(loc diag.Location, format string, args ...any) {
	s.summary.Warnings++
	s.Sink.WarnAt(loc, fmt.Sprintf(format, args...))
}

// Debugf is a pass-through to the sink.
func (s *Session) Debugf(format string, args ...any) { s.Sink.Debugf(format, args...) }

// Unchecked records an element that lacks a checkedBy attribute.
func (s *Session) Unchecked(kind string, loc diag.Location) {
	switch kind {
	case "equipment":
		s.summary.UncheckedEquipment = append(s.summary.UncheckedEquipment, loc)
	case "report":
		s.summary.UncheckedReport = append(s.summary.UncheckedReport, loc)
	case "performanceCheck":
		s.summary.UncheckedPerformanceCheck = append(s.summary.UncheckedPerformanceCheck, loc)
	}
}

// Summary returns a snapshot of the counters.
func (s *Session) Summary() Summary {
	out := s.summary
	out.Counts = make(map[string]int, len(s.summary.Counts))
	for k, v := range s.summary.Counts {
		out.Counts[k] = v
	}
	return out
}

// Issues returns the recorded issues in emission order.
func (s *Session) Issues() diag.Issues { return append(diag.Issues(nil), s.issues...) }

// Entry is the per-equipment context handed to the element validators.
type Entry struct {
	*Session
	File string
	Name string
}

// At returns a location in the entry's file with column 0.
func (e Entry) At(line int) diag.Location {
	return diag.Location{File: e.File, Line: line}
}
