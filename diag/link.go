package diag

import (
	"fmt"
	"path/filepath"
	"strings"
)

// URIScheme selects the editor that a terminal hyperlink opens.
type URIScheme string

const (
	SchemeNone      URIScheme = ""
	SchemeVS        URIScheme = "vs"
	SchemeVSCode    URIScheme = "vscode"
	SchemePyCharm   URIScheme = "pycharm"
	SchemeNotepadPP URIScheme = "n++"
)

// Schemes lists the supported editor schemes in the order shown to users.
var Schemes = []URIScheme{SchemeVS, SchemeVSCode, SchemePyCharm, SchemeNotepadPP}

// ParseScheme validates a user supplied scheme name. The empty string
// disables hyperlinks.
func ParseScheme(s string) (URIScheme, error) {
	if s == "" {
		return SchemeNone, nil
	}
	for _, sc := range Schemes {
		if strings.EqualFold(s, string(sc)) {
			return sc, nil
		}
	}
	names := make([]string, len(Schemes))
	for i, sc := range Schemes {
		names[i] = string(sc)
	}
	return SchemeNone, fmt.Errorf("unsupported link scheme %q, must be one of: %s", s, strings.Join(names, ", "))
}

// Location anchors a message to a position in a file.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`   // 1-based
	Column int    `json:"column"` // 0-based
}

// Label renders file:line:column.
func (l Location) Label() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// URI is the editor URI that opens the file at the location.
func (l Location) URI(scheme URIScheme) string {
	path := l.File
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	path = strings.TrimPrefix(filepath.ToSlash(path), "/")
	return fmt.Sprintf("%s://file/%s:%d:%d", scheme, path, l.Line, l.Column)
}

// Hyperlink wraps label in an OSC-8 escape sequence pointing at uri.
func Hyperlink(uri, label string) string {
	return "\033]8;;" + uri + "\033\\" + label + "\033]8;;\033\\"
}

// Render returns the location label, as a hyperlink when scheme is set.
func (l Location) Render(scheme URIScheme) string {
	if scheme == SchemeNone {
		return l.Label()
	}
	return Hyperlink(l.URI(scheme), l.Label())
}
