//go:build windows

package main

import (
	"errors"
	"io/fs"

	"golang.org/x/sys/windows/registry"

	"github.com/MSLNZ/msl-equipment-sub004/diag"
)

// modifyRegistry adds, or removes when remove is set, the URI scheme
// handlers that open editor links. vscode installs its own handler and is
// left alone.
func modifyRegistry(remove bool) error {
	command, err := handlerCommand()
	if err != nil {
		return err
	}
	for _, s := range diag.Schemes {
		if s == diag.SchemeVSCode {
			continue
		}
		if remove {
			err = unregisterScheme(string(s))
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
		} else {
			err = registerScheme(string(s), command)
		}
		if errors.Is(err, fs.ErrPermission) {
			return errElevated
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func registerScheme(name, command string) error {
	key, _, err := registry.CreateKey(registry.CLASSES_ROOT, name, registry.ALL_ACCESS)
	if err != nil {
		return err
	}
	defer key.Close()
	if err := key.SetStringValue("", "URL:"+name); err != nil {
		return err
	}
	if err := key.SetStringValue("URL Protocol", ""); err != nil {
		return err
	}

	open, _, err := registry.CreateKey(key, `shell\open\command`, registry.ALL_ACCESS)
	if err != nil {
		return err
	}
	defer open.Close()
	return open.SetStringValue("", command)
}

func unregisterScheme(name string) error {
	for _, sub := range []string{`\shell\open\command`, `\shell\open`, `\shell`, ""} {
		if err := registry.DeleteKey(registry.CLASSES_ROOT, name+sub); err != nil {
			return err
		}
	}
	return nil
}
