package equipment

import (
	"github.com/MSLNZ/msl-equipment-sub004/diag"
	"github.com/MSLNZ/msl-equipment-sub004/internal/schema"
	"github.com/MSLNZ/msl-equipment-sub004/internal/session"
)

// Options configures a Validator.
type Options struct {
	// RegisterSchema is the path of the equipment-register XSD. The bundled
	// schema is used when empty.
	RegisterSchema string
	// ConnectionsSchema is the path of the connections XSD. The bundled
	// schema is used when empty.
	ConnectionsSchema string
	// Roots are searched, in order, for files referenced by relative paths.
	Roots []string
	// Exclude drops discovered files matching any of these doublestar
	// patterns. A pattern is matched against the path, the path relative to
	// a searched directory and the base name.
	Exclude []string
	// ExitFirst stops the run after the first issue.
	ExitFirst bool
	// SkipChecksum replaces every digest check with a warning.
	SkipChecksum bool
	// Sink receives diagnostics. A silent sink is used when nil.
	Sink *diag.Sink

	// RegisterEngine and ConnectionsEngine override the schema engines
	// loaded from the paths above.
	RegisterEngine    SchemaEngine
	ConnectionsEngine SchemaEngine
}

// SchemaEngine validates a document against one schema.
type SchemaEngine = schema.Engine

// SchemaEngineFunc adapts a function to SchemaEngine.
type SchemaEngineFunc = schema.EngineFunc

// Violation is one schema error reported by a SchemaEngine. Line and Column
// are 1-based.
type Violation = schema.Violation

// Summary is the per-run tally of counters and issues.
type Summary = session.Summary

// Counter names used in Summary.Counts, in display order.
var CountOrder = session.CountOrder

// Kind classifies a parsed document by its root element.
type Kind int

const (
	KindUnsupported Kind = iota
	KindRegister
	KindConnections
)

func (k Kind) String() string {
	switch k {
	case KindRegister:
		return "register"
	case KindConnections:
		return "connections"
	default:
		return "unsupported"
	}
}
