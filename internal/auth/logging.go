package auth

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"SeniorJunior-backend/internal/logger"
)

// Audit statuses
const (
	StatusSuccess = "Success"
	StatusFail    = "Fail"
)

// AuditLog appends authentication attempts to log/auth.log.
// Line: timestamp (RFC3339) | level | authType | status | identifier? | message?
type AuditLog struct {
	log *zap.Logger
}

// NewAuditLog writes to path when enabled, otherwise every call is a no-op
func NewAuditLog(enabled bool, path string) (*AuditLog, error) {
	if !enabled {
		return &AuditLog{log: zap.NewNop()}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	l, err := logger.NewFile(path)
	if err != nil {
		return nil, err
	}
	return &AuditLog{log: l}, nil
}

// LogAuthAttempt records one attempt.
// level: debug|info|warning|error
// authType: Local|Register|Verify|Reset|Logout
// identifier: email or user id (optional)
func (a *AuditLog) LogAuthAttempt(level string, authType string, status string, identifier string, message string) {
	if a == nil {
		return
	}
	parts := []string{authType, status}
	if identifier != "" {
		parts = append(parts, identifier)
	}
	if message != "" {
		parts = append(parts, message)
	}
	line := strings.Join(parts, " | ")

	switch strings.ToLower(level) {
	case "debug":
		a.log.Debug(line)
	case "warning", "warn":
		a.log.Warn(line)
	case "error":
		a.log.Error(line)
	default:
		a.log.Info(line)
	}
}

// Sync flushes the file
func (a *AuditLog) Sync() error {
	if a == nil {
		return nil
	}
	return a.log.Sync()
}
