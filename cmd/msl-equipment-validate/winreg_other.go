//go:build !windows

package main

func modifyRegistry(bool) error { return errWindowsOnly }
