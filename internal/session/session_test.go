package session_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MSLNZ/msl-equipment-sub004/diag"
	"github.com/MSLNZ/msl-equipment-sub004/internal/session"
)

func TestSession_ReportCountsAndStops(t *testing.T) {
	var buf bytes.Buffer
	s := session.New(diag.NewSink(diag.Options{Writer: &buf}), true)
	assert.False(t, s.Stop())

	s.Errorf(diag.Location{File: "a.xml", Line: 2}, diag.CodeSchema, "bad %s", "thing")
	assert.True(t, s.Stop())

	sum := s.Summary()
	assert.Equal(t, 1, sum.Issues)
	assert.Equal(t, 1, sum.SchemaIssues)
	assert.Equal(t, 0, sum.Additional())
	assert.Equal(t, "ERROR a.xml:2:0\n  bad thing\n", buf.String())

	iss := s.Issues()
	require.Len(t, iss, 1)
	assert.Equal(t, diag.CodeSchema, iss[0].Code)
}

func TestSession_SilencedErrorsStillCount(t *testing.T) {
	var buf bytes.Buffer
	s := session.New(diag.NewSink(diag.Options{Writer: &buf, Verbosity: -5}), false)
	s.Errorf(diag.Location{File: "a.xml"}, diag.CodeTableValue, "x")
	s.Errorf(diag.Location{File: "a.xml"}, diag.CodeTableValue, "y")
	assert.Empty(t, buf.String())
	assert.Equal(t, 2, s.Summary().Issues)
	assert.False(t, s.Stop())
}

func TestSession_CountersAndUnchecked(t *testing.T) {
	s := session.New(nil, false)
	s.Count(session.CountEquipment, 3)
	s.Count(session.CountEquipment, 1)
	s.Skip()
	s.WarnAt(diag.Location{File: "r.xml", Line: 2}, "w")
	s.Unchecked("report", diag.Location{File: "r.xml", Line: 9})
	s.Unchecked("other", diag.Location{File: "r.xml", Line: 1})

	sum := s.Summary()
	assert.Equal(t, 4, sum.Counts[session.CountEquipment])
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 1, sum.Warnings)
	assert.Equal(t, []diag.Location{{File: "r.xml", Line: 9}}, sum.UncheckedReport)
	assert.Empty(t, sum.UncheckedEquipment)

	// snapshot is detached
	sum.Counts[session.CountEquipment] = 100
	assert.Equal(t, 4, s.Summary().Counts[session.CountEquipment])
}
