// Package audit is the violation-log collaborator: an append-only JSONL
// file of every detected violation, blocking or not. Writes are
// best-effort; the coordinator has already decided the verdict by the time
// anything lands here.
package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/railguard/railguard/internal/enforce"
	"github.com/railguard/railguard/internal/redact"
)

// Entry is one persisted violation.
type Entry struct {
	ID            string `json:"id"`
	Timestamp     string `json:"timestamp"`
	SessionID     string `json:"session_id,omitempty"`
	ConstraintID  string `json:"constraint_id"`
	Severity      string `json:"severity"`
	Message       string `json:"message"`
	Matches       int    `json:"matches"`
	ContentLength int    `json:"content_length"`
	Excerpt       string `json:"excerpt,omitempty"`
	FilePath      string `json:"file_path,omitempty"`
	Blocked       bool   `json:"blocked"`
}

// Logger appends entries to a JSONL file.
type Logger struct {
	file *os.File
	mu   sync.Mutex
}

// Open opens or creates the log file for appending.
func Open(path string) (*Logger, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return &Logger{file: file}, nil
}

// Record converts a coordinator record into a log entry and appends it.
// The excerpt is scrubbed of credential-shaped text first.
func (l *Logger) Record(rec enforce.Record) error {
	entry := Entry{
		ID:            uuid.NewString(),
		Timestamp:     rec.Timestamp.UTC().Format(time.RFC3339),
		SessionID:     rec.SessionID,
		ConstraintID:  rec.ConstraintID,
		Severity:      string(rec.Severity),
		Message:       rec.Message,
		Matches:       rec.Matches,
		ContentLength: rec.ContentLength,
		Excerpt:       redact.Scrub(rec.Excerpt),
		FilePath:      rec.FilePath,
		Blocked:       rec.Blocked,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = l.file.Write(data)
	return err
}

// Close releases the underlying file.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// ReadAll loads every parseable entry from a log file. Malformed lines are
// skipped; a missing file is an empty log.
func ReadAll(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}
