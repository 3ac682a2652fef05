// Package audit implements the append-only room event log: one
// human-readable line per event, ordered by position only.
package audit

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/dkeye/watchroom/internal/core"
)

var (
	_ core.AuditLog = (*FileLog)(nil)
	_ core.AuditLog = (*MemoryLog)(nil)
)

// FileLog appends to a text file, like the group chat file of a session.
type FileLog struct {
	mu   sync.Mutex
	path string
}

func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

func (l *FileLog) Append(lines ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	var b strings.Builder
	for _, ln := range lines {
		b.WriteString(sanitize(ln))
		b.WriteByte('\n')
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return fmt.Errorf("write audit log: %w", err)
	}
	return f.Close()
}

func (l *FileLog) Lines() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	out := []string{}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return out, nil
}

// Reset truncates the log for a fresh session.
func (l *FileLog) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return os.WriteFile(l.path, nil, 0o644)
}

// MemoryLog keeps lines in memory; used when no audit path is configured.
type MemoryLog struct {
	mu    sync.Mutex
	lines []string
}

func NewMemoryLog() *MemoryLog { return &MemoryLog{} }

func (l *MemoryLog) Append(lines ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ln := range lines {
		l.lines = append(l.lines, sanitize(ln))
	}
	return nil
}

func (l *MemoryLog) Lines() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out, nil
}

func (l *MemoryLog) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
	return nil
}

// One event, one line: embedded newlines would forge entries.
func sanitize(line string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(line)
}
