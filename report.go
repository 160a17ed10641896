package equipment

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/MSLNZ/msl-equipment-sub004/i18n"
)

// Report is the machine-readable record of one run.
type Report struct {
	RunID     string        `json:"run_id"`
	Version   string        `json:"version"`
	Generated time.Time     `json:"generated"`
	Files     []string      `json:"files"`
	Outcome   string        `json:"outcome"`
	Summary   Summary       `json:"summary"`
	Issues    []ReportIssue `json:"issues"`
}

// ReportIssue is an Issue with a human-readable title for its code.
type ReportIssue struct {
	Issue
	Title string `json:"title"`
}

// NewReport builds a Report from a Result.
func NewReport(r Result) Report {
	issues := make([]ReportIssue, 0, len(r.Issues))
	for _, it := range r.Issues {
		issues = append(issues, ReportIssue{Issue: it, Title: i18n.T(it.Code)})
	}
	files := r.Files
	if files == nil {
		files = []string{}
	}
	return Report{
		RunID:     uuid.NewString(),
		Version:   Version,
		Generated: time.Now().UTC(),
		Files:     files,
		Outcome:   r.Outcome(),
		Summary:   r.Summary,
		Issues:    issues,
	}
}

// WriteReport encodes the report for r as indented JSON.
func WriteReport(w io.Writer, r Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewReport(r)); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteReportFile writes the report for r to path.
func WriteReportFile(path string, r Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close report: %w", cerr)
		}
	}()
	return WriteReport(f, r)
}
