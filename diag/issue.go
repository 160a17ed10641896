package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes.
const (
	CodeParseError        = "parse_error"
	CodeSchema            = "schema"
	CodeDuplicateID       = "duplicate_id"
	CodeChecksumMismatch  = "checksum_mismatch"
	CodeNotFound          = "not_found"
	CodeUnsupportedScheme = "unsupported_scheme"
	CodeEquationVariables = "equation_variables"
	CodeEquationSyntax    = "equation_syntax"
	CodeTableCardinality  = "table_cardinality"
	CodeTableEmptyRow     = "table_empty_row"
	CodeTableColumns      = "table_columns"
	CodeTableType         = "table_type"
	CodeTableValue        = "table_value"
	CodeArchive           = "archive"
	CodeUnknownFormat     = "unknown_format"
	CodeDiscovery         = "discovery"
)

// Issue is one recorded validation error, anchored to a document location.
type Issue struct {
	File    string `json:"file"`
	Line    int    `json:"line"`   // 1-based, 0 when unknown.
	Column  int    `json:"column"` // 0-based.
	Code    string `json:"code"`
	Message string `json:"message"`
	// Cause is the underlying Go error, when there is one.
	Cause error `json:"-"`
}

// Location returns where the issue was found.
func (it Issue) Location() Location {
	return Location{File: it.File, Line: it.Line, Column: it.Column}
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. duplicate_id at register.xml:12:0
		fmt.Fprintf(b, "%s at %s", it.Code, it.Location().Label())
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// ByCode counts the issues per code.
func (iss Issues) ByCode() map[string]int {
	m := make(map[string]int, len(iss))
	for _, it := range iss {
		m[it.Code]++
	}
	return m
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}
