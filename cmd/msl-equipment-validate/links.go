package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/MSLNZ/msl-equipment-sub004/diag"
)

var (
	errWindowsOnly = errors.New("Modifying the Windows Registry is only valid on Windows")
	errElevated    = errors.New("You must use an elevated (admin) terminal to modify the Windows Registry")
)

var programDirs = []string{`C:\Program Files`, `C:\Program Files (x86)`}

var linkPattern = regexp.MustCompile(`^([^:]+)://file/((?:[a-zA-Z]:)?[^:]+)(?::(\d+))?(?::(\d+))?`)

// editorLink is a parsed scheme://file/<path>:<line>:<column> hyperlink.
type editorLink struct {
	scheme diag.URIScheme
	file   string
	line   int
	column int
}

func parseLink(uri string) (editorLink, bool) {
	m := linkPattern.FindStringSubmatch(uri)
	if m == nil {
		return editorLink{}, false
	}
	l := editorLink{scheme: diag.URIScheme(strings.ToLower(m[1])), file: m[2]}
	l.line, _ = strconv.Atoi(m[3])
	l.column, _ = strconv.Atoi(m[4])
	return l, true
}

// handlerCommand is what the registry runs for a registered scheme.
func handlerCommand() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`"%s" --open-link "%%1"`, exe), nil
}

// editorCommand returns the command line that opens l, or nil when the scheme
// has no handler here or the editor is not installed. glob lists the files
// matching a pattern.
func editorCommand(l editorLink, glob func(pattern string) []string) []string {
	first := func(patterns ...string) string {
		for _, p := range patterns {
			if m := glob(p); len(m) > 0 {
				return m[0]
			}
		}
		return ""
	}
	patterns := func(rel ...string) []string {
		out := make([]string, len(programDirs))
		for i, pf := range programDirs {
			out[i] = filepath.Join(append([]string{pf}, rel...)...)
		}
		return out
	}

	switch l.scheme {
	case diag.SchemePyCharm:
		exe := first(patterns("JetBrains", "*", "bin", "pycharm64.exe")...)
		if exe == "" {
			return nil
		}
		cmd := []string{exe}
		if l.line > 0 {
			cmd = append(cmd, "--line", strconv.Itoa(l.line))
		}
		if l.column > 0 {
			cmd = append(cmd, "--column", strconv.Itoa(l.column))
		}
		return append(cmd, l.file)
	case diag.SchemeVS:
		exe := first(patterns("Microsoft Visual Studio", "*", "Community", "Common7", "IDE", "devenv.exe")...)
		if exe == "" {
			return nil
		}
		cmd := []string{exe, "/Edit", l.file}
		if l.line > 0 {
			cmd = append(cmd, "/Command", fmt.Sprintf("Edit.GoTo %d", l.line))
		}
		return cmd
	case diag.SchemeNotepadPP:
		exe := first(patterns("Notepad++", "notepad++.exe")...)
		if exe == "" {
			return nil
		}
		cmd := []string{exe}
		if l.line > 0 {
			cmd = append(cmd, "-n"+strconv.Itoa(l.line))
		}
		if l.column > 0 {
			cmd = append(cmd, "-c"+strconv.Itoa(l.column))
		}
		return append(cmd, l.file)
	}
	// vscode registers its own handler
	return nil
}

func installed(pattern string) []string {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil
	}
	return matches
}

// openLink starts the editor for a hyperlink that a terminal handed to the
// registered scheme handler. Links it cannot handle are ignored.
func openLink(uri string) error {
	l, ok := parseLink(uri)
	if !ok {
		return nil
	}
	argv := editorCommand(l, installed)
	if argv == nil {
		return nil
	}
	return exec.Command(argv[0], argv[1:]...).Start()
}
