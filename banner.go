package equipment

import (
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/MSLNZ/msl-equipment-sub004/diag"
	"github.com/MSLNZ/msl-equipment-sub004/internal/schema"
)

// Version of the tool. Overridden at link time with -ldflags "-X".
var Version = "dev"

const unknown = "UNKNOWN"

// Banner lists the platform, tool, engine and schema versions and the roots.
func (v *Validator) Banner() []string {
	lines := []string{
		strings.Repeat("=", 30) + " Validation Starts " + strings.Repeat("=", 30),
		"platform: Go " + runtime.Version() + " (" + runtime.GOOS + "/" + runtime.GOARCH + ")",
		"msl-equipment-validate: " + Version,
		"xsd: " + moduleVersion("github.com/jacoelho/xsd"),
		"equipment-register: " + schemaVersion(v.opts.RegisterSchema, schema.RegisterFile),
		"connections: " + schemaVersion(v.opts.ConnectionsSchema, schema.ConnectionsFile),
	}
	if len(v.opts.Roots) > 0 {
		lines = append(lines, "roots: "+strings.Join(v.opts.Roots, "\n       "))
	}
	return append(lines, "")
}

// LogBanner writes Banner at info level.
func (v *Validator) LogBanner(sink *diag.Sink) {
	if sink == nil {
		return
	}
	for _, line := range v.Banner() {
		sink.Infof("%s", line)
	}
}

func schemaVersion(path, name string) string {
	ver, err := schema.Version(path, name)
	if err != nil || ver == "" {
		return unknown
	}
	return ver
}

func moduleVersion(path string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return unknown
	}
	for _, dep := range info.Deps {
		if dep.Path != path {
			continue
		}
		if dep.Replace != nil {
			return dep.Replace.Version
		}
		return dep.Version
	}
	return unknown
}
