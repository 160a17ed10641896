// Package i18n maps issue codes to human-readable titles.
package i18n

// titles holds the English title of every issue code.
var titles = map[string]string{
	"parse_error":        "XML parse error",
	"schema":             "schema violation",
	"duplicate_id":       "duplicate equipment ID",
	"checksum_mismatch":  "SHA-256 checksum mismatch",
	"not_found":          "file not found",
	"unsupported_scheme": "unsupported URL scheme",
	"equation_variables": "equation variables mismatch",
	"equation_syntax":    "invalid equation syntax",
	"table_cardinality":  "table dimensions mismatch",
	"table_empty_row":    "empty table row",
	"table_columns":      "table column count mismatch",
	"table_type":         "invalid table type",
	"table_value":        "invalid table value",
	"archive":            "invalid serialised archive",
	"unknown_format":     "unknown serialised format",
	"discovery":          "file discovery",
}

// T returns the title for code. Unknown codes are returned unchanged.
func T(code string) string {
	if msg, ok := titles[code]; ok {
		return msg
	}
	return code
}
