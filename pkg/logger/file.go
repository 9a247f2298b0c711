package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileAppender writes formatted log lines to a local append-only file.
// It is one of the two independent best-effort channels of the event sink;
// a failed append is reported to the caller but never retried.
type FileAppender struct {
	mu   sync.Mutex
	path string
}

// NewFileAppender ensures the parent directory exists and returns an
// appender for the given file path.
func NewFileAppender(path string) (*FileAppender, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &FileAppender{path: path}, nil
}

// Path returns the file path the appender writes to
func (f *FileAppender) Path() string {
	return f.path
}

// Append writes a single line to the file. The file is opened per call so a
// rotated or deleted file is transparently recreated.
func (f *FileAppender) Append(line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(line); err != nil {
		return fmt.Errorf("failed to append log line: %w", err)
	}
	return nil
}

// FormatSecurityLine renders a security log entry as a single human-readable
// line, newline terminated.
func FormatSecurityLine(level, message, ip, endpoint, method, userID, details string) string {
	return fmt.Sprintf("[%s] [%s] %s | IP: %s | Endpoint: %s | Method: %s | User: %s | Details: %s\n",
		time.Now().UTC().Format(time.RFC3339),
		level,
		message,
		orNA(ip),
		orNA(endpoint),
		orNA(method),
		orNA(userID),
		details,
	)
}

// FormatAuditLine renders an audit log entry as a single line.
func FormatAuditLine(action, userID, entityType, entityID, description, ip string) string {
	return fmt.Sprintf("[%s] [%s] User: %s | Entity: %s | ID: %s | Description: %s | IP: %s\n",
		time.Now().UTC().Format(time.RFC3339),
		action,
		userID,
		entityType,
		orNA(entityID),
		description,
		orNA(ip),
	)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
