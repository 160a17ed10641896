package equipment

import (
	"fmt"
	"strings"

	"github.com/MSLNZ/msl-equipment-sub004/diag"
)

// MaxExitCode is the largest process exit status.
const MaxExitCode = 255

// OK reports whether the run recorded no issues.
func (r Result) OK() bool { return r.Summary.Issues == 0 }

// ExitCode is the number of issues, clamped to MaxExitCode.
func (r Result) ExitCode() int {
	if r.Summary.Issues > MaxExitCode {
		return MaxExitCode
	}
	return r.Summary.Issues
}

// Outcome is the one-line verdict of the run.
func (r Result) Outcome() string {
	s := r.Summary
	if s.Issues == 0 {
		msg := "Success, no issues found!"
		if s.Skipped > 0 {
			msg += fmt.Sprintf(" [skipped: %d]", s.Skipped)
		}
		return msg
	}
	noun := "issues"
	if s.Issues == 1 {
		noun = "issue"
	}
	return fmt.Sprintf("Found %d %s [%d schema, %d additional]", s.Issues, noun, s.SchemaIssues, s.Additional())
}

// LogSummary writes the element counters at info level and the unchecked
// element locations at debug level.
func (r Result) LogSummary(sink *diag.Sink) {
	if sink == nil {
		return
	}
	s := r.Summary
	sink.Infof("")
	sink.Infof("%s Summary %s", strings.Repeat("=", 35), strings.Repeat("=", 35))
	for _, name := range CountOrder {
		sink.Infof("<%s> %d", name, s.Counts[name])
	}
	if s.Warnings > 0 {
		sink.Infof("warnings %d", s.Warnings)
	}

	unchecked := []struct {
		kind string
		locs []Location
	}{
		{"equipment", s.UncheckedEquipment},
		{"report", s.UncheckedReport},
		{"performanceCheck", s.UncheckedPerformanceCheck},
	}
	for _, u := range unchecked {
		if len(u.locs) == 0 {
			continue
		}
		sink.Infof("unchecked <%s> %d", u.kind, len(u.locs))
		for _, loc := range u.locs {
			sink.Debugf("  %s", loc.Render(sink.Scheme()))
		}
	}
	sink.Infof("")
}
