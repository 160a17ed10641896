// Package archive checks serialised uncertainty budgets by handing the
// archive element to a Deserializer for its encoding.
package archive

import (
	"fmt"
	"sort"

	"github.com/MSLNZ/msl-equipment-sub004/diag"
	"github.com/MSLNZ/msl-equipment-sub004/internal/session"
	"github.com/MSLNZ/msl-equipment-sub004/internal/xmltree"
)

// Deserializer loads one archive encoding. Only its pass/fail result is used.
type Deserializer interface {
	Deserialize(el *xmltree.Element) error
}

// DeserializerFunc adapts a function to Deserializer.
type DeserializerFunc func(el *xmltree.Element) error

func (f DeserializerFunc) Deserialize(el *xmltree.Element) error { return f(el) }

// Validator dispatches on the local name of the archive element. Messages
// name the element by its {namespace}local tag.
type Validator struct {
	formats map[string]Deserializer
}

// New returns a Validator that knows the gtcArchive and gtcArchiveJSON
// encodings.
func New() *Validator {
	return &Validator{formats: map[string]Deserializer{
		"gtcArchive":     XMLArchive{},
		"gtcArchiveJSON": JSONArchive{},
	}}
}

// Register adds or replaces the deserializer for a local element name.
func (v *Validator) Register(local string, d Deserializer) {
	v.formats[local] = d
}

// Formats lists the registered element names.
func (v *Validator) Formats() []string {
	out := make([]string, 0, len(v.formats))
	for k := range v.formats {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Check validates the single child of a serialised element.
func (v *Validator) Check(el *xmltree.Element, entry session.Entry) bool {
	child := el.ChildAt(0)
	if child == nil {
		return true
	}
	d, ok := v.formats[child.Local()]
	if !ok {
		entry.Errorf(entry.At(child.Line), diag.CodeUnknownFormat,
			"Don't know how to deserialize '%s'", child.Tag())
		return false
	}

	entry.Debugf("Validating <%s> for '%s'", child.Local(), entry.Name)
	if err := deserialize(d, child); err != nil {
		entry.Report(diag.Issue{
			File:    entry.File,
			Line:    child.Line,
			Code:    diag.CodeArchive,
			Message: fmt.Sprintf("Invalid serialised '%s' for '%s': %v", child.Tag(), entry.Name, err),
			Cause:   err,
		})
		return false
	}
	return true
}

func deserialize(d Deserializer, el *xmltree.Element) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("deserializer panicked: %v", r)
		}
	}()
	return d.Deserialize(el)
}
