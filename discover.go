package equipment

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Extension is the file extension of candidate documents.
const Extension = ".xml"

// Discover expands paths into the ordered list of files to validate.
//
//   - a directory is searched recursively for *.xml files, skipping any path
//     below it with a component that starts with "."; results are sorted
//   - a path containing glob syntax is expanded with doublestar
//   - any other path with an extension is returned as is, whether or not it
//     exists, so that reading it reports the problem
//   - a missing path without an extension is a "Directory not found" issue
//
// Files matching an exclude pattern are dropped. When paths is empty the
// working directory is searched. Problems are returned as Issues alongside
// the files that were found.
func Discover(paths, exclude []string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	var (
		files    []string
		problems Issues
		seen     = map[string]bool{}
	)
	add := func(f, rel string) {
		if seen[f] || excluded(f, rel, exclude) {
			return
		}
		seen[f] = true
		files = append(files, f)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		switch {
		case err == nil && info.IsDir():
			found, err := walk(p)
			if err != nil {
				problems = AppendIssues(problems, Issue{File: p, Code: CodeDiscovery, Message: err.Error(), Cause: err})
				continue
			}
			for _, f := range found {
				rel, _ := filepath.Rel(p, f)
				add(f, rel)
			}
		case err == nil || filepath.Ext(p) != "" && !hasMeta(p):
			add(p, p)
		case hasMeta(p):
			found, err := glob(p)
			if err != nil {
				problems = AppendIssues(problems, Issue{File: p, Code: CodeDiscovery, Message: "Invalid pattern: " + err.Error(), Cause: err})
				continue
			}
			if len(found) == 0 {
				problems = AppendIssues(problems, Issue{File: p, Code: CodeDiscovery, Message: "No files match"})
			}
			for _, f := range found {
				add(f, f)
			}
		default:
			problems = AppendIssues(problems, Issue{File: p, Code: CodeDiscovery, Message: "Directory not found", Cause: err})
		}
	}

	if len(problems) > 0 {
		return files, problems
	}
	return files, nil
}

func walk(dir string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), "**/*"+Extension, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if hidden(m) {
			continue
		}
		out = append(out, filepath.Join(dir, filepath.FromSlash(m)))
	}
	sort.Strings(out)
	return out, nil
}

func glob(pattern string) ([]string, error) {
	base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	out := matches[:0]
	for _, m := range matches {
		rel := filepath.ToSlash(m)
		if base != "." {
			rel = strings.TrimPrefix(strings.TrimPrefix(rel, base), "/")
		}
		if hidden(rel) {
			continue
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// hidden reports whether a slash-separated relative path has a component
// starting with ".".
func hidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

// excluded matches each pattern against the path, the path relative to the
// searched directory and the base name.
func excluded(file, rel string, patterns []string) bool {
	candidates := []string{filepath.ToSlash(file), filepath.ToSlash(rel), filepath.Base(file)}
	for _, pat := range patterns {
		for _, c := range candidates {
			if ok, _ := doublestar.Match(pat, c); ok {
				return true
			}
		}
	}
	return false
}
