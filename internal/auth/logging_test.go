package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log", "auth.log")
	a, err := NewAuditLog(true, path)
	require.NoError(t, err)

	a.LogAuthAttempt("warning", "Local", StatusFail, "a@example.com", "Invalid credentials")
	a.LogAuthAttempt("info", "Local", StatusSuccess, "a@example.com", "")
	require.NoError(t, a.Sync())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], " | warn | Local | Fail | a@example.com | Invalid credentials"), lines[0])
	assert.True(t, strings.HasSuffix(lines[1], " | info | Local | Success | a@example.com"), lines[1])
}

func TestAuditLogDisabled(t *testing.T) {
	dir := t.TempDir()
	a, err := NewAuditLog(false, filepath.Join(dir, "auth.log"))
	require.NoError(t, err)
	a.LogAuthAttempt("info", "Local", StatusSuccess, "x", "")

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)

	var nilLog *AuditLog
	nilLog.LogAuthAttempt("info", "Local", StatusSuccess, "x", "")
}
