package equipment

import "github.com/MSLNZ/msl-equipment-sub004/diag"

// Issue codes.
const (
	CodeParseError        = diag.CodeParseError
	CodeSchema            = diag.CodeSchema
	CodeDuplicateID       = diag.CodeDuplicateID
	CodeChecksumMismatch  = diag.CodeChecksumMismatch
	CodeNotFound          = diag.CodeNotFound
	CodeUnsupportedScheme = diag.CodeUnsupportedScheme
	CodeEquationVariables = diag.CodeEquationVariables
	CodeEquationSyntax    = diag.CodeEquationSyntax
	CodeTableCardinality  = diag.CodeTableCardinality
	CodeTableEmptyRow     = diag.CodeTableEmptyRow
	CodeTableColumns      = diag.CodeTableColumns
	CodeTableType         = diag.CodeTableType
	CodeTableValue        = diag.CodeTableValue
	CodeArchive           = diag.CodeArchive
	CodeUnknownFormat     = diag.CodeUnknownFormat
	CodeDiscovery         = diag.CodeDiscovery
)

// Issue represents a single validation error.
type Issue = diag.Issue

// Issues is a collection of validation errors that implements error.
type Issues = diag.Issues

// Location is a file, line and column anchor.
type Location = diag.Location

// AppendIssues appends issues to dst.
func AppendIssues(dst Issues, more ...Issue) Issues { return diag.AppendIssues(dst, more...) }

// AsIssues converts an error into Issues when possible (errors.As compatible).
func AsIssues(err error) (Issues, bool) { return diag.AsIssues(err) }
