// Package equation validates the value and uncertainty expressions of
// equation and cvdCoefficients elements with a closed arithmetic grammar.
package equation

import (
	"errors"
	"sort"
	"strings"

	"github.com/MSLNZ/msl-equipment-sub004/diag"
	"github.com/MSLNZ/msl-equipment-sub004/internal/session"
	"github.com/MSLNZ/msl-equipment-sub004/internal/xmltree"
)

// Placeholder is the value bound to every variable during validation.
const Placeholder = 1.0

// Validate parses text and evaluates it with every variable bound to
// Placeholder. A division by zero is tolerated since it only shows that the
// placeholder hit a pole.
func Validate(text string, vars []string) error {
	expr, err := Parse(text)
	if err != nil {
		return err
	}
	if err := expr.Bind(vars); err != nil {
		return err
	}
	env := make(map[string]float64, len(vars))
	for _, v := range vars {
		env[v] = Placeholder
	}
	if _, err := expr.Eval(env); err != nil && !errors.Is(err, ErrZeroDivision) {
		return err
	}
	return nil
}

// Check validates an equation element: unique range names, agreement between
// the expression variables and the range variables, then both expressions.
func Check(el *xmltree.Element, entry session.Entry) bool {
	value, uncertainty := el.Child("value"), el.Child("uncertainty")
	if value == nil || uncertainty == nil {
		return true
	}

	names := uniq(append(strings.Fields(value.AttributeValue("variables")),
		strings.Fields(uncertainty.AttributeValue("variables"))...))

	ranges := el.Child("ranges")
	var rangeNames []string
	anchor := el.Line
	if ranges != nil {
		anchor = ranges.Line
		for _, r := range ranges.Descendants(ranges.Name.Space, "range") {
			rangeNames = append(rangeNames, r.AttributeValue("variable"))
		}
	}

	ok := true
	if len(uniq(rangeNames)) != len(rangeNames) {
		ok = false
		entry.Errorf(entry.At(anchor), diag.CodeEquationVariables,
			"The names of the range variables are not unique for '%s': %s", entry.Name, quotedList(rangeNames))
		if entry.Stop() {
			return false
		}
	}

	if !sameSet(names, rangeNames) {
		ok = false
		entry.Errorf(entry.At(el.Line), diag.CodeEquationVariables,
			"The equation variables and the range variables are not the same for '%s'\n"+
				"  equation variables: %s\n"+
				"  range variables   : %s",
			entry.Name, strings.Join(names, ", "), strings.Join(rangeNames, ", "))
		if entry.Stop() {
			return false
		}
	}

	for _, x := range []*xmltree.Element{value, uncertainty} {
		if !evaluate(x, entry) {
			ok = false
			if entry.Stop() {
				return false
			}
		}
	}
	return ok
}

// CheckCVD validates the uncertainty expression of a cvdCoefficients element,
// its sixth child.
func CheckCVD(el *xmltree.Element, entry session.Entry) bool {
	uncertainty := el.ChildAt(5)
	if uncertainty == nil {
		return true
	}
	return evaluate(uncertainty, entry)
}

func evaluate(el *xmltree.Element, entry session.Entry) bool {
	text := el.TrimmedText()
	if err := Validate(text, strings.Fields(el.AttributeValue("variables"))); err != nil {
		entry.Errorf(entry.At(el.Line), diag.CodeEquationSyntax,
			"Invalid equation syntax for '%s' [equation=%s]: %v", entry.Name, text, err)
		return false
	}
	return true
}

// ---- helpers ----

func uniq(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func sameSet(a, b []string) bool {
	x, y := uniq(a), uniq(b)
	if len(x) != len(y) {
		return false
	}
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// quotedList renders ['a', 'b'].
func quotedList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
