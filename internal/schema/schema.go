// Package schema gates documents through an XSD engine before any semantic
// validation runs.
package schema

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/jacoelho/xsd"
	xsderrors "github.com/jacoelho/xsd/errors"

	"github.com/MSLNZ/msl-equipment-sub004/diag"
	"github.com/MSLNZ/msl-equipment-sub004/internal/session"
	"github.com/MSLNZ/msl-equipment-sub004/internal/xmltree"
)

// RegisterNamespace is the target namespace of equipment registers.
const RegisterNamespace = "https://measurement.govt.nz/equipment-register"

// Bundled schema file names.
const (
	RegisterFile    = "equipment-register.xsd"
	ConnectionsFile = "connections.xsd"
)

//go:embed schemas/*.xsd
var bundled embed.FS

// Bundled returns the embedded schema directory.
func Bundled() fs.FS {
	sub, err := fs.Sub(bundled, "schemas")
	if err != nil {
		panic(err)
	}
	return sub
}

// Violation is one schema error reported by an Engine.
type Violation struct {
	Line    int // 1-based
	Column  int // 1-based, 0 when unknown
	Message string
}

// Engine validates a candidate document. A nil slice and nil error mean the
// document conforms; a non-nil error means the engine could not run.
type Engine interface {
	Validate(r io.Reader) ([]Violation, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(r io.Reader) ([]Violation, error)

func (f EngineFunc) Validate(r io.Reader) ([]Violation, error) { return f(r) }

type xsdEngine struct {
	schema *xsd.Schema
}

// Load compiles the schema at path, or the bundled schema called name when
// path is empty.
func Load(path, name string) (Engine, error) {
	var (
		s   *xsd.Schema
		err error
	)
	if path == "" {
		s, err = xsd.LoadWithOptions(Bundled(), name, xsd.NewLoadOptions())
	} else {
		s, err = xsd.LoadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return &xsdEngine{schema: s}, nil
}

func (e *xsdEngine) Validate(r io.Reader) ([]Violation, error) {
	err := e.schema.Validate(r)
	if err == nil {
		return nil, nil
	}
	list, ok := xsderrors.AsValidations(err)
	if !ok {
		return nil, err
	}
	out := make([]Violation, 0, len(list))
	for _, v := range list {
		msg := v.Message
		if len(v.Expected) > 0 {
			msg += fmt.Sprintf(" (expected: %s)", strings.Join(v.Expected, ", "))
		}
		if v.Actual != "" {
			msg += fmt.Sprintf(" (actual: %s)", v.Actual)
		}
		out = append(out, Violation{Line: v.Line, Column: v.Column, Message: msg})
	}
	return out, nil
}

// Version reads the version attribute of a schema document, from path or
// from the bundled file called name.
func Version(path, name string) (string, error) {
	var (
		doc *xmltree.Document
		err error
	)
	if path == "" {
		var data []byte
		if data, err = fs.ReadFile(Bundled(), name); err == nil {
			doc, err = xmltree.ParseBytes(data)
		}
	} else {
		doc, err = xmltree.ParseFile(path)
	}
	if err != nil {
		return "", err
	}
	return doc.Root.AttributeValue("version"), nil
}

// Gate runs the register and connections engines.
type Gate struct {
	Register    Engine
	Connections Engine
}

// CheckRegister counts the register and its equipment, then validates it.
func (g *Gate) CheckRegister(doc *xmltree.Document, sess *session.Session) bool {
	sess.Count(session.CountRegister, 1)
	sess.Count(session.CountEquipment, len(doc.Root.Descendants(RegisterNamespace, "equipment")))
	return g.check(g.Register, doc, sess)
}

// CheckConnections counts the connections document and its entries, then
// validates it.
func (g *Gate) CheckConnections(doc *xmltree.Document, sess *session.Session) bool {
	sess.Count(session.CountConnections, 1)
	sess.Count(session.CountConnection, len(doc.Root.Descendants(doc.Root.Name.Space, "connection")))
	return g.check(g.Connections, doc, sess)
}

func (g *Gate) check(engine Engine, doc *xmltree.Document, sess *session.Session) bool {
	if engine == nil {
		return true
	}
	violations, err := engine.Validate(bytes.NewReader(doc.Raw))
	if err != nil {
		sess.Report(diag.Issue{File: doc.Path, Code: diag.CodeSchema, Message: err.Error(), Cause: err})
		return false
	}
	for _, v := range violations {
		col := v.Column - 1
		if col < 0 {
			col = 0
		}
		sess.Errorf(diag.Location{File: doc.Path, Line: v.Line, Column: col}, diag.CodeSchema, "%s", StripNamespace(v.Message))
		if sess.Stop() {
			break
		}
	}
	return len(violations) == 0
}

// StripNamespace removes the register namespace from engine messages.
func StripNamespace(msg string) string {
	msg = strings.ReplaceAll(msg, "{"+RegisterNamespace+"}", "")
	return strings.ReplaceAll(msg, RegisterNamespace+":", "")
}
