package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Loader finds and loads the config file.
type Loader struct {
	// WorkDir is searched for ProjectFile. Defaults to the working directory.
	WorkDir string
	// UserConfigDir overrides os.UserConfigDir.
	UserConfigDir string
}

// Find returns the config file to use: explicit when set, else ProjectFile in
// the working directory, else the user file. It returns "" when there is none.
// An explicit path that does not exist is an error.
func (l Loader) Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return explicit, nil
	}

	for _, candidate := range l.candidates() {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", nil
}

func (l Loader) candidates() []string {
	var out []string
	wd := l.WorkDir
	if wd == "" {
		wd, _ = os.Getwd()
	}
	if wd != "" {
		out = append(out, filepath.Join(wd, ProjectFile))
	}
	ud := l.UserConfigDir
	if ud == "" {
		ud, _ = os.UserConfigDir()
	}
	if ud != "" {
		out = append(out, filepath.Join(ud, UserDir, UserFile))
	}
	return out
}

// Load returns the defaults overlaid with the file Find selects.
func (l Loader) Load(explicit string) (*Config, error) {
	path, err := l.Find(explicit)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}
