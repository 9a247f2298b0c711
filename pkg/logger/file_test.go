package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileAppender_AppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "security.log")
	appender, err := NewFileAppender(path)
	require.NoError(t, err)

	require.NoError(t, appender.Append("line one\n"))
	require.NoError(t, appender.Append("line two\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", string(data))
}

func TestFileAppender_RecreatesDeletedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "security.log")
	appender, err := NewFileAppender(path)
	require.NoError(t, err)

	require.NoError(t, appender.Append("before\n"))
	require.NoError(t, os.Remove(path))
	require.NoError(t, appender.Append("after\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "after\n", string(data))
}

func TestFormatSecurityLine(t *testing.T) {
	line := FormatSecurityLine("SECURITY_ALERT", "blocked request", "192.0.2.1", "/api/auth/login", "POST", "", "{}")

	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Contains(t, line, "[SECURITY_ALERT]")
	assert.Contains(t, line, "IP: 192.0.2.1")
	assert.Contains(t, line, "User: N/A")
}
