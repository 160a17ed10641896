package table_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MSLNZ/msl-equipment-sub004/diag"
	"github.com/MSLNZ/msl-equipment-sub004/internal/session"
	"github.com/MSLNZ/msl-equipment-sub004/internal/table"
	"github.com/MSLNZ/msl-equipment-sub004/internal/xmltree"
)

func tableEl(t *testing.T, types, units, header, data string) *xmltree.Element {
	t.Helper()
	src := "<table>\n" +
		"  <type>" + types + "</type>\n" +
		"  <unit>" + units + "</unit>\n" +
		"  <header>" + header + "</header>\n" +
		"  <data>" + data + "</data>\n" +
		"</table>"
	d, err := xmltree.ParseBytes([]byte(src))
	require.NoError(t, err)
	return d.Root
}

func newEntry(exitFirst bool) (session.Entry, *bytes.Buffer) {
	var buf bytes.Buffer
	s := session.New(diag.NewSink(diag.Options{Writer: &buf}), exitFirst)
	return session.Entry{Session: s, File: "register.xml", Name: "Name"}, &buf
}

func TestCheck_Cardinality(t *testing.T) {
	e, _ := newEntry(false)
	assert.True(t, table.Check(tableEl(t, "int,double", ",", "n,v", "1,2.5"), e))
	assert.Equal(t, 0, e.Summary().Issues)

	e, buf := newEntry(false)
	assert.False(t, table.Check(tableEl(t, "int,double", ",", "n,v", "1,2,3"), e))
	assert.Equal(t, 1, e.Summary().Issues)
	assert.Equal(t,
		"ERROR register.xml:5:0\n"+
			"  The table <data> does not have the expected number of columns for 'Name'\n"+
			"  Expected 2 columns, row data is '1,2,3'\n",
		buf.String())
}

func TestCheck_TypeUnitHeaderLengths(t *testing.T) {
	e, buf := newEntry(false)
	assert.False(t, table.Check(tableEl(t, "int,double", "m", "a,b,c", "1,2"), e))
	out := buf.String()
	assert.Contains(t, out, "ERROR register.xml:3:0\n  The table <type> and <unit> have different lengths for 'Name'\n  type: ['int', 'double']\n  unit: ['m']")
	assert.Contains(t, out, "ERROR register.xml:4:0\n  The table <type> and <header> have different lengths for 'Name'\n  type: ['int', 'double']\n  header: ['a', 'b', 'c']")
	assert.Equal(t, 2, e.Summary().Issues)
}

func TestCheck_BoolLiterals(t *testing.T) {
	for _, v := range []string{"True", "1", "false", "TRUE", "0", "False", "true", "FALSE"} {
		e, _ := newEntry(false)
		assert.True(t, table.Check(tableEl(t, "bool", "", "b", v), e), v)
	}

	e, buf := newEntry(false)
	assert.False(t, table.Check(tableEl(t, "bool", "", "b", "maybe"), e))
	assert.Equal(t,
		"ERROR register.xml:5:0\n  Invalid table <data> for 'Name': Invalid bool value maybe, must be one of: 0, 1, FALSE, False, TRUE, True, false, true\n",
		buf.String())
}

func TestCheck_InteriorBlankRow(t *testing.T) {
	e, buf := newEntry(false)
	assert.False(t, table.Check(tableEl(t, "int,int", ",", "a,b", "1,2\n\n3,4"), e))
	assert.Equal(t, 1, e.Summary().Issues)
	assert.Equal(t, "ERROR register.xml:6:0\n  The table <data> cannot have an empty row for 'Name'\n", buf.String())

	e, _ = newEntry(false)
	assert.True(t, table.Check(tableEl(t, "int,int", ",", "a,b", "\n  1,2\n3,4\n   \n\n"), e))
	assert.Equal(t, 0, e.Summary().Issues)
}

func TestCheck_RowLines(t *testing.T) {
	e, buf := newEntry(false)
	data := "\n    1,2\n    3,x\n  "
	assert.False(t, table.Check(tableEl(t, "int,int", ",", "a,b", data), e))
	assert.Contains(t, buf.String(), "ERROR register.xml:7:0\n  Invalid table <data> for 'Name': Invalid int value 'x'")
}

func TestCheck_UnknownTypeReportedOnce(t *testing.T) {
	e, buf := newEntry(false)
	data := "1,1\n2,2\n3,3"
	assert.False(t, table.Check(tableEl(t, "integer,int", ",", "a,b", data), e))
	assert.Equal(t, 1, e.Summary().Issues)
	assert.Equal(t,
		"ERROR register.xml:2:0\n  Invalid table <type> 'integer' for 'Name', must be one of: bool, int, double, string\n",
		buf.String())
}

func TestCheck_ExitFirst(t *testing.T) {
	e, buf := newEntry(true)
	assert.False(t, table.Check(tableEl(t, "bool,int", ",", "a,b", "maybe,2147483648"), e))
	assert.Equal(t, 1, e.Summary().Issues)
	assert.Equal(t, 1, strings.Count(buf.String(), "ERROR"))
	assert.True(t, e.Stop())
}

func TestConvert(t *testing.T) {
	good := []struct{ typ, cell string }{
		{"int", "-2147483648"}, {"int", "2147483647"}, {"int", "+5"}, {"int", "1_000"}, {"int", "-2_147_483_648"},
		{"double", "1_000.5"}, {"double", "1e1_0"},
		{"double", "1.5"}, {"double", "2E+308"}, {"double", "2E-308"}, {"double", "-inf"}, {"double", "NaN"}, {"double", "1e3"},
		{"string", ""}, {"string", "anything, really"},
	}
	for _, tc := range good {
		_, err := table.Convert(tc.typ, tc.cell)
		assert.NoError(t, err, tc.typ+" "+tc.cell)
	}

	bad := []struct{ typ, cell, msg string }{
		{"int", "2147483648", "Invalid int value 2147483648, must be in range [-2147483648, 2147483647]"},
		{"int", "-2147483649", "Invalid int value -2147483649, must be in range [-2147483648, 2147483647]"},
		{"int", "99999999999999999999", "Invalid int value 99999999999999999999, must be in range [-2147483648, 2147483647]"},
		{"int", "2.3", "Invalid int value '2.3'"},
		{"int", "1__000", "Invalid int value '1__000'"},
		{"int", "_1000", "Invalid int value '_1000'"},
		{"int", "1000_", "Invalid int value '1000_'"},
		{"int", "2_147_483_648", "Invalid int value 2_147_483_648, must be in range [-2147483648, 2147483647]"},
		{"double", "E+300", "Invalid double value 'E+300'"},
		{"double", "0x1p-2", "Invalid double value '0x1p-2'"},
		{"double", "-0X1P3", "Invalid double value '-0X1P3'"},
		{"double", "1._5", "Invalid double value '1._5'"},
		{"bool", "2", "Invalid bool value 2, must be one of: 0, 1, FALSE, False, TRUE, True, false, true"},
	}
	for _, tc := range bad {
		_, err := table.Convert(tc.typ, tc.cell)
		require.Error(t, err)
		assert.Equal(t, tc.msg, err.Error())
	}

	_, err := table.Convert("float", "1")
	assert.ErrorIs(t, err, table.ErrUnknownType)
}
