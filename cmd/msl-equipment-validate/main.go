// Command msl-equipment-validate checks equipment-register and connections
// XML files. The exit status is the number of issues found, at most 255.
package main

import (
	"fmt"
	"os"
	"runtime"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
