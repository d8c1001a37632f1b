package common

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCrashFile(t *testing.T) {
	prev := CrashLogDir
	t.Cleanup(func() { CrashLogDir = prev })

	InstallCrashHandler(filepath.Join(t.TempDir(), "logs"))

	crashPath := WriteCrashFile("boom: nil map write", GetStackTrace())
	require.NotEmpty(t, crashPath, "crash file path")

	data, err := os.ReadFile(crashPath)
	require.NoError(t, err)

	report := string(data)
	assert.Contains(t, report, "OSTENDO CRASH REPORT")
	assert.Contains(t, report, "boom: nil map write")
	assert.Contains(t, report, "STACK TRACE")
	assert.True(t, strings.HasPrefix(filepath.Base(crashPath), "crash-"),
		"crash file name should carry the crash- prefix, got %s", crashPath)
}

func TestInstallCrashHandlerKeepsDefaultDir(t *testing.T) {
	prev := CrashLogDir
	t.Cleanup(func() { CrashLogDir = prev })

	dir := filepath.Join(t.TempDir(), "logs")
	CrashLogDir = dir

	InstallCrashHandler("")
	assert.Equal(t, dir, CrashLogDir)
	_, err := os.Stat(dir)
	assert.NoError(t, err, "log dir should be created")
}
