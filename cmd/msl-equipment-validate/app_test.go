package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MSLNZ/msl-equipment-sub004/config"
)

const register = `<?xml version="1.0" encoding="utf-8"?>
<register team="Mass" xmlns="https://measurement.govt.nz/equipment-register">
  <equipment enteredBy="Joseph" checkedBy="Jane">
    <id>MSLE.M.001</id>
    <manufacturer>A</manufacturer>
    <model>B</model>
    <serial>C</serial>
    <description>D</description>
  </equipment>
</register>
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// isolated keeps the developer's project and user config files out of tests.
func isolated(t *testing.T) config.Loader {
	return config.Loader{WorkDir: t.TempDir(), UserConfigDir: t.TempDir()}
}

func runWith(t *testing.T, ld config.Loader, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := executeWith(ld, append([]string{"--no-colour"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	return runWith(t, isolated(t), args...)
}

func TestCLI_Success(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.xml", register)

	code, stdout, stderr := runCLI(t, dir)
	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "Success, no issues found!\n", stdout)
	assert.Contains(t, stderr, "Validation Starts")
	assert.Contains(t, stderr, "INFO  <register> 1")
}

func TestCLI_DuplicateIDsSetExitStatus(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.xml", register)
	b := writeFile(t, dir, "b.xml", register)

	code, stdout, stderr := runCLI(t, a, b)
	assert.Equal(t, 1, code)
	assert.Equal(t, "Found 1 issue [0 schema, 1 additional]\n", stdout)
	assert.Contains(t, stderr, "ERROR "+b+":4:0\n  Duplicate equipment ID 'MSLE.M.001' also found in "+a+", line 4")
}

func TestCLI_QuietSilencesErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.xml", "<register>")

	code, stdout, stderr := runCLI(t, "-qqq", dir)
	assert.Equal(t, 1, code)
	assert.Equal(t, "Found 1 issue [0 schema, 1 additional]\n", stdout)
	assert.Empty(t, stderr)
}

func TestCLI_VersionMode(t *testing.T) {
	code, stdout, stderr := runCLI(t, "-V")
	assert.Equal(t, 0, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "equipment-register: 1.0")
	assert.Contains(t, stderr, "connections: 1.0")
}

func TestCLI_BadLink(t *testing.T) {
	code, _, stderr := runCLI(t, "--link", "emacs")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "unsupported link scheme")
}

func TestCLI_UnknownFlag(t *testing.T) {
	code, _, _ := runCLI(t, "--nope")
	assert.Equal(t, exitUsage, code)
}

func TestCLI_MissingSchema(t *testing.T) {
	code, stdout, stderr := runCLI(t, "--schema", filepath.Join(t.TempDir(), "missing.xsd"))
	assert.Equal(t, exitConfig, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "load register schema")
}

func TestCLI_ConfigFileAndReport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "regs/a.xml", "<register>")
	writeFile(t, dir, "regs/b.xml", "<register>")
	cfg := writeFile(t, dir, "cfg.yaml", "exit_first: true\ninclude: [regs]\nreport: out.json\n")

	code, _, _ := runCLI(t, "--config", cfg)
	assert.Equal(t, 1, code)

	data, err := os.ReadFile(filepath.Join(dir, "out.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"code": "parse_error"`)
	assert.Equal(t, 1, strings.Count(string(data), `"code": "parse_error"`))
}

func TestCLI_FlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.xml", "<register>")
	writeFile(t, dir, "b.xml", "<register>")
	cfg := writeFile(t, dir, "cfg.yaml", "exit_first: true\n")

	code, _, _ := runCLI(t, "--config", cfg, "--exit-first=false", dir)
	assert.Equal(t, 2, code)
}

func TestCLI_ProjectConfigFromWorkDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.xml", "<register>")
	writeFile(t, dir, "b.xml", "<register>")
	ld := config.Loader{WorkDir: t.TempDir(), UserConfigDir: t.TempDir()}
	writeFile(t, ld.WorkDir, config.ProjectFile, "exit_first: true
")

	code, _, _ := runWith(t, ld, dir)
	assert.Equal(t, 1, code)

	// the user file is only used without a project file
	ld.WorkDir = t.TempDir()
	writeFile(t, ld.UserConfigDir, filepath.Join(config.UserDir, config.UserFile), "exit_first: true
verbosity: -3
")
	code, stdout, stderr := runWith(t, ld, dir)
	assert.Equal(t, 1, code)
	assert.Equal(t, "Found 1 issue [0 schema, 1 additional]\n", stdout)
	assert.Empty(t, stderr)
}

func TestCLI_ShortFlags(t *testing.T) {
	code := 0
	cmd := rootCmd(isolated(t), &bytes.Buffer{}, &bytes.Buffer{}, &code)
	require.NoError(t, cmd.ParseFlags([]string{"-c", "-n", "-x", "-A", "-R"}))

	for _, name := range []string{"skip-checksum", "no-colour", "exit-first", "add-winreg-keys", "remove-winreg-keys"} {
		v, err := cmd.Flags().GetBool(name)
		require.NoError(t, err)
		assert.True(t, v, name)
	}
	assert.Equal(t, "c", cmd.Flags().Lookup("skip-checksum").Shorthand)
	assert.Equal(t, "n", cmd.Flags().Lookup("no-colour").Shorthand)
	assert.True(t, cmd.Flags().Lookup("open-link").Hidden)

	dir := t.TempDir()
	writeFile(t, dir, "a.xml", register)
	code, stdout, _ := runCLI(t, "-c", "-n", dir)
	assert.Equal(t, 0, code)
	assert.Equal(t, "Success, no issues found!\n", stdout)
}

func TestCLI_RegistryKeysOutsideWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("modifies the Windows Registry")
	}
	for _, flag := range []string{"-A", "--add-winreg-keys", "-R", "--remove-winreg-keys"} {
		t.Run(flag, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "a.xml", register)
			code, stdout, stderr := runCLI(t, flag, dir)
			assert.Equal(t, exitConfig, code)
			assert.Empty(t, stdout)
			assert.Equal(t, "ERROR Modifying the Windows Registry is only valid on Windows\n", stderr)
		})
	}
}
