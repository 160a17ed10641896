package schema_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MSLNZ/msl-equipment-sub004/diag"
	"github.com/MSLNZ/msl-equipment-sub004/internal/schema"
	"github.com/MSLNZ/msl-equipment-sub004/internal/session"
	"github.com/MSLNZ/msl-equipment-sub004/internal/xmltree"
)

const minimalRegister = `<?xml version="1.0" encoding="utf-8"?>
<register team="Mass" xmlns="https://measurement.govt.nz/equipment-register">
  <equipment enteredBy="Joseph">
    <id>MSLE.M.001</id>
    <manufacturer>A</manufacturer>
    <model>B</model>
    <serial>C</serial>
    <description>D</description>
  </equipment>
</register>
`

func parse(t *testing.T, src string) *xmltree.Document {
	t.Helper()
	d, err := xmltree.ParseBytes([]byte(src))
	require.NoError(t, err)
	d.Path = "register.xml"
	return d
}

func stub(vs ...schema.Violation) schema.Engine {
	return schema.EngineFunc(func(r io.Reader) ([]schema.Violation, error) {
		_, _ = io.ReadAll(r)
		return vs, nil
	})
}

func TestGate_ReportsEveryViolation(t *testing.T) {
	var buf bytes.Buffer
	sess := session.New(diag.NewSink(diag.Options{Writer: &buf}), false)
	g := &schema.Gate{Register: stub(
		schema.Violation{Line: 4, Column: 5, Message: "element {https://measurement.govt.nz/equipment-register}id not expected"},
		schema.Violation{Line: 9, Message: "missing attribute"},
	)}

	assert.False(t, g.CheckRegister(parse(t, minimalRegister), sess))
	sum := sess.Summary()
	assert.Equal(t, 2, sum.Issues)
	assert.Equal(t, 2, sum.SchemaIssues)
	assert.Equal(t, 1, sum.Counts[session.CountRegister])
	assert.Equal(t, 1, sum.Counts[session.CountEquipment])
	assert.Equal(t, "ERROR register.xml:4:4\n  element id not expected\nERROR register.xml:9:0\n  missing attribute\n", buf.String())
}

func TestGate_ExitFirstTruncates(t *testing.T) {
	sess := session.New(nil, true)
	g := &schema.Gate{Register: stub(schema.Violation{Line: 1}, schema.Violation{Line: 2}, schema.Violation{Line: 3})}
	assert.False(t, g.CheckRegister(parse(t, minimalRegister), sess))
	assert.Equal(t, 1, sess.Summary().Issues)
}

func TestGate_EngineFailure(t *testing.T) {
	sess := session.New(nil, false)
	g := &schema.Gate{Connections: schema.EngineFunc(func(io.Reader) ([]schema.Violation, error) {
		return nil, errors.New("engine exploded")
	})}
	doc := parse(t, "<connections><connection/><connection/></connections>")
	assert.False(t, g.CheckConnections(doc, sess))

	iss := sess.Issues()
	require.Len(t, iss, 1)
	assert.Equal(t, "engine exploded", iss[0].Message)
	assert.Equal(t, 2, sess.Summary().Counts[session.CountConnection])
	assert.Equal(t, 1, sess.Summary().Counts[session.CountConnections])
}

func TestGate_Valid(t *testing.T) {
	sess := session.New(nil, false)
	g := &schema.Gate{Register: stub()}
	assert.True(t, g.CheckRegister(parse(t, minimalRegister), sess))
	assert.Equal(t, 0, sess.Summary().Issues)
}

func TestBundledSchemas(t *testing.T) {
	reg, err := schema.Load("", schema.RegisterFile)
	require.NoError(t, err)
	_, err = schema.Load("", schema.ConnectionsFile)
	require.NoError(t, err)

	vs, err := reg.Validate(strings.NewReader(minimalRegister))
	require.NoError(t, err)
	assert.Empty(t, vs)

	broken := strings.Replace(minimalRegister, "    <description>D</description>\n", "", 1)
	vs, err = reg.Validate(strings.NewReader(broken))
	require.NoError(t, err)
	assert.NotEmpty(t, vs)

	v, err := schema.Version("", schema.RegisterFile)
	require.NoError(t, err)
	assert.Equal(t, "1.0", v)
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "person.xsd")
	require.NoError(t, os.WriteFile(path, []byte(`<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" version="2.3">
  <xs:element name="person">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="name" type="xs:string"/>
        <xs:element name="age" type="xs:integer"/>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>`), 0o644))

	eng, err := schema.Load(path, "")
	require.NoError(t, err)
	vs, err := eng.Validate(strings.NewReader("<person><name>J</name></person>"))
	require.NoError(t, err)
	assert.NotEmpty(t, vs)

	v, err := schema.Version(path, "")
	require.NoError(t, err)
	assert.Equal(t, "2.3", v)

	_, err = schema.Load(filepath.Join(dir, "missing.xsd"), "")
	assert.Error(t, err)
}

func TestStripNamespace(t *testing.T) {
	assert.Equal(t, "element equipment", schema.StripNamespace("element {https://measurement.govt.nz/equipment-register}equipment"))
}
