// Package table validates the inlined CSV data of a table element against its
// declared column types.
package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/MSLNZ/msl-equipment-sub004/diag"
	"github.com/MSLNZ/msl-equipment-sub004/internal/session"
	"github.com/MSLNZ/msl-equipment-sub004/internal/xmltree"
)

// Types is the column type vocabulary.
var Types = []string{"bool", "int", "double", "string"}

var boolLiterals = map[string]bool{
	"true": true, "True": true, "TRUE": true, "1": true,
	"false": false, "False": false, "FALSE": false, "0": false,
}

// ErrUnknownType is returned by Convert for a type outside Types.
var ErrUnknownType = errors.New("unknown table type")

// Convert applies the value constructor of typ to a trimmed cell.
func Convert(typ, cell string) (any, error) {
	switch typ {
	case "bool":
		v, ok := boolLiterals[cell]
		if !ok {
			return nil, fmt.Errorf("Invalid bool value %s, must be one of: 0, 1, FALSE, False, TRUE, True, false, true", cell)
		}
		return v, nil
	case "int":
		digits, ok := stripUnderscores(cell)
		if !ok {
			return nil, fmt.Errorf("Invalid int value '%s'", cell)
		}
		v, err := strconv.ParseInt(digits, 10, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, fmt.Errorf("Invalid int value '%s'", cell)
		}
		if err != nil || v < math.MinInt32 || v > math.MaxInt32 {
			return nil, fmt.Errorf("Invalid int value %s, must be in range [%d, %d]", cell, math.MinInt32, math.MaxInt32)
		}
		return int32(v), nil
	case "double":
		digits, ok := stripUnderscores(cell)
		if !ok || isHex(digits) {
			return nil, fmt.Errorf("Invalid double value '%s'", cell)
		}
		v, err := strconv.ParseFloat(digits, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, fmt.Errorf("Invalid double value '%s'", cell)
		}
		return v, nil
	case "string":
		return cell, nil
	}
	return nil, ErrUnknownType
}

// stripUnderscores removes digit-grouping underscores. Each one must sit
// between two decimal digits.
func stripUnderscores(s string) (string, bool) {
	if !strings.Contains(s, "_") {
		return s, true
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			b.WriteByte(s[i])
			continue
		}
		if i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1]) {
			return "", false
		}
	}
	return b.String(), true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHex(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func split(el *xmltree.Element) []string {
	parts := strings.Split(el.Text, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// Check validates the type, unit, header and data children of a table.
func Check(el *xmltree.Element, entry session.Entry) bool {
	typeEl, unitEl, headerEl, dataEl := el.ChildAt(0), el.ChildAt(1), el.ChildAt(2), el.ChildAt(3)
	if typeEl == nil || unitEl == nil || headerEl == nil || dataEl == nil {
		return true
	}
	types, units, header := split(typeEl), split(unitEl), split(headerEl)

	ok := true
	if len(types) != len(units) {
		ok = false
		entry.Errorf(entry.At(unitEl.Line), diag.CodeTableCardinality,
			"The table <%s> and <%s> have different lengths for '%s'\n  %s: %s\n  %s: %s",
			typeEl.Local(), unitEl.Local(), entry.Name,
			typeEl.Local(), quotedList(types), unitEl.Local(), quotedList(units))
		if entry.Stop() {
			return false
		}
	}
	if len(types) != len(header) {
		ok = false
		entry.Errorf(entry.At(headerEl.Line), diag.CodeTableCardinality,
			"The table <%s> and <%s> have different lengths for '%s'\n  %s: %s\n  %s: %s",
			typeEl.Local(), headerEl.Local(), entry.Name,
			typeEl.Local(), quotedList(types), headerEl.Local(), quotedList(header))
		if entry.Stop() {
			return false
		}
	}

	lines := strings.Split(dataEl.Text, "\n")
	first, last := -1, -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			if first < 0 {
				first = i
			}
			last = i
		}
	}

	unknown := map[string]bool{}
	for i := first; first >= 0 && i <= last; i++ {
		line := dataEl.Line + i
		row := strings.TrimSpace(lines[i])
		if row == "" {
			ok = false
			entry.Errorf(entry.At(line), diag.CodeTableEmptyRow,
				"The table <%s> cannot have an empty row for '%s'", dataEl.Local(), entry.Name)
			if entry.Stop() {
				return false
			}
			continue
		}

		cells := strings.Split(row, ",")
		if len(cells) != len(types) {
			ok = false
			entry.Errorf(entry.At(line), diag.CodeTableColumns,
				"The table <%s> does not have the expected number of columns for '%s'\n  Expected %d columns, row data is '%s'",
				dataEl.Local(), entry.Name, len(types), row)
			if entry.Stop() {
				return false
			}
		}

		for j := 0; j < len(cells) && j < len(types); j++ {
			_, err := Convert(types[j], strings.TrimSpace(cells[j]))
			switch {
			case err == nil:
				continue
			case errors.Is(err, ErrUnknownType):
				if unknown[types[j]] {
					continue
				}
				unknown[types[j]] = true
				entry.Errorf(entry.At(typeEl.Line), diag.CodeTableType,
					"Invalid table <%s> '%s' for '%s', must be one of: %s",
					typeEl.Local(), types[j], entry.Name, strings.Join(Types, ", "))
			default:
				entry.Errorf(entry.At(line), diag.CodeTableValue,
					"Invalid table <%s> for '%s': %v", dataEl.Local(), entry.Name, err)
			}
			ok = false
			if entry.Stop() {
				return false
			}
		}
	}
	return ok
}

func quotedList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
