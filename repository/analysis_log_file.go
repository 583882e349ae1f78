package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"lexsaksham-backend/models"
)

// maxLogLine bounds a single JSONL record when reading the log back
const maxLogLine = 1 << 20

// FileAnalysisLog appends audit entries to a JSON Lines file
type FileAnalysisLog struct {
	path string
	mu   sync.Mutex
}

// NewFileAnalysisLog creates the parent directory of path if needed
func NewFileAnalysisLog(path string) (*FileAnalysisLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &FileAnalysisLog{path: path}, nil
}

// Append writes one entry as a single line and syncs it to disk
func (l *FileAnalysisLog) Append(ctx context.Context, entry models.AnalysisLogEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("failed to write log entry: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	return f.Close()
}

// Recent returns the last limit entries in file order.
// Lines that do not parse are skipped.
func (l *FileAnalysisLog) Recent(ctx context.Context, limit int) ([]models.AnalysisLogEntry, error) {
	if limit <= 0 {
		return []models.AnalysisLogEntry{}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.AnalysisLogEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	// ring of the last limit lines
	ring := make([][]byte, 0, limit)
	next := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLogLine)
	for scanner.Scan() {
		line := append([]byte(nil), scanner.Bytes()...)
		if len(ring) < limit {
			ring = append(ring, line)
			continue
		}
		ring[next] = line
		next = (next + 1) % limit
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	entries := make([]models.AnalysisLogEntry, 0, len(ring))
	for i := range ring {
		line := ring[(next+i)%len(ring)]
		var e models.AnalysisLogEntry
		if err := json.Unmarshal(line, &e); err != nil {
			slog.WarnContext(ctx, "skipping malformed analysis log line", "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
