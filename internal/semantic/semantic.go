// Package semantic runs the checks a schema cannot express over every
// equipment entry of a schema-valid register.
package semantic

import (
	"context"
	"strings"

	"github.com/MSLNZ/msl-equipment-sub004/diag"
	"github.com/MSLNZ/msl-equipment-sub004/internal/archive"
	"github.com/MSLNZ/msl-equipment-sub004/internal/equation"
	"github.com/MSLNZ/msl-equipment-sub004/internal/integrity"
	"github.com/MSLNZ/msl-equipment-sub004/internal/schema"
	"github.com/MSLNZ/msl-equipment-sub004/internal/session"
	"github.com/MSLNZ/msl-equipment-sub004/internal/table"
	"github.com/MSLNZ/msl-equipment-sub004/internal/xmltree"
)

const ns = schema.RegisterNamespace

// Options configures Validate.
type Options struct {
	// Roots are searched, in order, for relative file references.
	Roots []string
	// SkipChecksum replaces every digest check with a warning.
	SkipChecksum bool
	// Archives validates serialised elements. A default Validator is used
	// when nil.
	Archives *archive.Validator
}

// ID is an equipment identifier and where it was first seen.
type ID struct {
	Value    string
	Location diag.Location
}

type check func(el *xmltree.Element, entry session.Entry)

// Validate checks every equipment entry of doc and returns its identifiers
// in document order. Within one document the first occurrence of an
// identifier wins.
func Validate(ctx context.Context, doc *xmltree.Document, sess *session.Session, opts Options) []ID {
	archives := opts.Archives
	if archives == nil {
		archives = archive.New()
	}

	reference := func(counter string) check {
		return func(el *xmltree.Element, entry session.Entry) {
			entry.Count(counter, 1)
			if opts.SkipChecksum {
				entry.Skip()
				entry.WarnAt(entry.At(el.Line), "Skipped checksum validation for <%s> of '%s'",
					el.Local(), entry.Name)
				return
			}
			integrity.Check(el, opts.Roots, entry)
		}
	}
	counted := func(counter string, fn func(*xmltree.Element, session.Entry) bool) check {
		return func(el *xmltree.Element, entry session.Entry) {
			entry.Count(counter, 1)
			fn(el, entry)
		}
	}

	order := []struct {
		local string
		run   check
	}{
		{"digitalReport", reference(session.CountDigitalReport)},
		{"equation", counted(session.CountEquation, equation.Check)},
		{"file", reference(session.CountFile)},
		{"serialised", counted(session.CountSerialised, archives.Check)},
		{"table", counted(session.CountTable, table.Check)},
		{"cvdCoefficients", counted(session.CountCVDCoefficients, equation.CheckCVD)},
	}

	var ids []ID
	seen := map[string]bool{}
	for _, eq := range doc.Root.Descendants(ns, "equipment") {
		if ctx.Err() != nil || sess.Stop() {
			return ids
		}
		if idEl := eq.ChildAt(0); idEl != nil {
			if id := idEl.TrimmedText(); !seen[id] {
				seen[id] = true
				ids = append(ids, ID{Value: id, Location: diag.Location{File: doc.Path, Line: idEl.Line}})
			}
		}

		entry := session.Entry{Session: sess, File: doc.Path, Name: displayName(eq)}
		for _, kind := range order {
			for _, el := range eq.Descendants(ns, kind.local) {
				entry.Debugf("Validating <%s> for '%s'", kind.local, entry.Name)
				kind.run(el, entry)
				if sess.Stop() {
					return ids
				}
			}
		}
	}
	return ids
}

func displayName(eq *xmltree.Element) string {
	parts := make([]string, 0, 3)
	for i := 1; i <= 3; i++ {
		parts = append(parts, eq.ChildAt(i).TrimmedText())
	}
	return strings.Join(parts, "|")
}

// ScanUnchecked records equipment, report and performanceCheck elements that
// have no checkedBy attribute.
func ScanUnchecked(doc *xmltree.Document, sess *session.Session) {
	for _, kind := range []string{"equipment", "report", "performanceCheck"} {
		for _, el := range doc.Root.Descendants(ns, kind) {
			if _, ok := el.Attribute("checkedBy"); !ok {
				sess.Unchecked(kind, diag.Location{File: doc.Path, Line: el.Line})
			}
		}
	}
}
