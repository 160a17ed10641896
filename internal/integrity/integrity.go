// Package integrity resolves the url of a digitalReport or file element and
// verifies the SHA-256 digest of the content it points to.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/MSLNZ/msl-equipment-sub004/diag"
	"github.com/MSLNZ/msl-equipment-sub004/internal/session"
	"github.com/MSLNZ/msl-equipment-sub004/internal/xmltree"
)

// ChunkSize is the read buffer used while hashing.
const ChunkSize = 65536

var (
	schemeRE = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9+.\-]*):`)
	driveRE  = regexp.MustCompile(`^/?[A-Za-z]:([/\\]|$)`)
)

// UnsupportedSchemeError is returned by Resolve for url schemes other than
// file and drive letters.
type UnsupportedSchemeError struct {
	Scheme string
	URL    string
}

func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("The url scheme '%s' is not yet supported for validation [url=%s]", e.Scheme, e.URL)
}

// NotFoundError is returned by Resolve when no candidate is a regular file.
type NotFoundError struct {
	URL   string
	Roots []string
}

func (e *NotFoundError) Error() string {
	if len(e.Roots) == 0 {
		return fmt.Sprintf("Cannot find '%s', include --root arguments if the url is a relative path", e.URL)
	}
	return fmt.Sprintf("Cannot find '%s', using the roots: %s", e.URL, strings.Join(e.Roots, ", "))
}

// LocalPath converts url text into a local file path. Single-letter schemes
// are drive letters, file URIs are unwrapped and every other scheme is
// rejected.
func LocalPath(url string) (string, error) {
	m := schemeRE.FindStringSubmatch(url)
	if m == nil || len(m[1]) == 1 {
		return url, nil
	}
	scheme := m[1]
	if !strings.EqualFold(scheme, "file") {
		return "", &UnsupportedSchemeError{Scheme: scheme, URL: url}
	}

	rest := url[len(m[0]):]
	if !strings.HasPrefix(rest, "//") {
		// file:relative or file:/absolute
		return stripDriveSlash(rest), nil
	}

	rest = rest[2:]
	authority, path := rest, ""
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		authority, path = rest[:i], rest[i:]
	}
	switch {
	case authority == "":
		// file:///abs, file:///C:/abs, file:////abs
		path = stripDriveSlash(path)
		if strings.HasPrefix(path, "//") {
			path = "/" + strings.TrimLeft(path, "/")
		}
		return path, nil
	case strings.EqualFold(authority, "localhost"):
		return stripDriveSlash(path), nil
	case strings.Contains(authority, ":"):
		// file://C:/abs
		return authority + path, nil
	default:
		// file://name/rest is taken relative to the roots
		return authority + path, nil
	}
}

func stripDriveSlash(p string) string {
	if driveRE.MatchString(p) && strings.HasPrefix(p, "/") {
		return p[1:]
	}
	return p
}

func isAbs(p string) bool {
	return filepath.IsAbs(p) || strings.HasPrefix(p, "/") || driveRE.MatchString(p)
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}

// Resolve returns the local file that url refers to. Relative paths that do
// not exist as-is are joined under each root in order.
func Resolve(url string, roots []string) (string, error) {
	path, err := LocalPath(url)
	if err != nil {
		return "", err
	}
	if isFile(path) {
		return path, nil
	}
	if !isAbs(path) {
		for _, root := range roots {
			candidate := filepath.Join(root, filepath.FromSlash(path))
			if isFile(candidate) {
				return candidate, nil
			}
		}
	}
	return "", &NotFoundError{URL: url, Roots: roots}
}

// Digest streams the file through SHA-256 and returns the lower-case hex sum.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Check validates a digitalReport or file element: child 0 is the url and
// child 1 the declared sha256.
func Check(el *xmltree.Element, roots []string, entry session.Entry) bool {
	urlEl, shaEl := el.ChildAt(0), el.ChildAt(1)
	if urlEl == nil || shaEl == nil {
		return true
	}
	url := urlEl.TrimmedText()

	path, err := Resolve(url, roots)
	if err != nil {
		code := diag.CodeNotFound
		var unsupported *UnsupportedSchemeError
		if errors.As(err, &unsupported) {
			code = diag.CodeUnsupportedScheme
		}
		entry.Errorf(entry.At(urlEl.Line), code, "%s", err.Error())
		return false
	}

	got, err := Digest(path)
	if err != nil {
		entry.Errorf(entry.At(urlEl.Line), diag.CodeNotFound, "Cannot read '%s': %v", path, err)
		return false
	}
	declared := strings.ToLower(shaEl.TrimmedText())
	if got != declared {
		entry.Errorf(entry.At(shaEl.Line), diag.CodeChecksumMismatch,
			"The SHA-256 checksum of %s does not match for '%s'\n  expected: %s\n  <%s>: %s",
			path, entry.Name, got, shaEl.Local(), declared)
		return false
	}
	return true
}
