package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

var numberedLogPattern = regexp.MustCompile(`^app-\d{4}-W\d{2}_(\d{2})\.log$`)

// RotatingLogger writes to app-<year>-W<week>.log files in a directory, starting a new
// file every ISO week and whenever the current file would grow past maxFileSize.
type RotatingLogger struct {
	logDir      string
	retention   time.Duration
	maxFileSize int64

	mu          sync.Mutex
	currentFile *os.File
	currentWeek string
	currentSeq  int
	currentSize int64
}

// OpenRotatingLogger creates logDir, removes files past retention and opens this week's file
func OpenRotatingLogger(logDir string, retentionWeeks int, maxFileSize int64) (*RotatingLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}

	rl := &RotatingLogger{
		logDir:      logDir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
	}

	if _, err := rl.cleanupOldLogs(); err != nil {
		return nil, err
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if err := rl.rotate(getWeekKey(time.Now())); err != nil {
		return nil, err
	}
	return rl, nil
}

// getWeekKey returns the week key in YYYY-Www format (ISO week)
func getWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func logFileName(week string, seq int) string {
	if seq == 0 {
		return fmt.Sprintf("app-%s.log", week)
	}
	return fmt.Sprintf("app-%s_%02d.log", week, seq)
}

// rotate opens the first file of week with room left (caller must hold the lock)
func (rl *RotatingLogger) rotate(week string) error {
	if rl.currentFile != nil {
		if err := rl.currentFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file during rotation: %v\n", err)
		}
		rl.currentFile = nil
	}

	if week != rl.currentWeek {
		rl.currentSeq = rl.highestSequence(week)
	}

	for {
		logPath := filepath.Join(rl.logDir, logFileName(week, rl.currentSeq))
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", logPath, err)
		}

		info, err := file.Stat()
		if err != nil {
			_ = file.Close()
			return fmt.Errorf("failed to stat log file %s: %w", logPath, err)
		}

		if rl.maxFileSize > 0 && info.Size() >= rl.maxFileSize {
			_ = file.Close()
			rl.currentSeq++
			continue
		}

		rl.currentFile = file
		rl.currentWeek = week
		rl.currentSize = info.Size()
		return nil
	}
}

// highestSequence returns the largest _NN suffix already present for week
func (rl *RotatingLogger) highestSequence(week string) int {
	matches, _ := filepath.Glob(filepath.Join(rl.logDir, fmt.Sprintf("app-%s_??.log", week)))

	highest := 0
	for _, match := range matches {
		m := numberedLogPattern.FindStringSubmatch(filepath.Base(match))
		if len(m) < 2 {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

// Write writes data to the current log file
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	week := getWeekKey(time.Now())
	switch {
	case week != rl.currentWeek:
		if err := rl.rotate(week); err != nil {
			return 0, err
		}
	case rl.maxFileSize > 0 && rl.currentSize > 0 && rl.currentSize+int64(len(p)) > rl.maxFileSize:
		rl.currentSeq++
		if err := rl.rotate(week); err != nil {
			return 0, err
		}
	}

	if rl.currentFile == nil {
		return 0, fmt.Errorf("no log file available")
	}

	n, err := rl.currentFile.Write(p)
	rl.currentSize += int64(n)
	return n, err
}

// cleanupOldLogs removes app-*.log files not modified within the retention period
func (rl *RotatingLogger) cleanupOldLogs() (int, error) {
	entries, err := os.ReadDir(rl.logDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := time.Now().Add(-rl.retention)
	deleted := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "app-") || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(rl.logDir, entry.Name())); err == nil {
				deleted++
			}
		}
	}

	return deleted, nil
}

// Close closes the current log file
func (rl *RotatingLogger) Close() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.currentFile == nil {
		return nil
	}
	err := rl.currentFile.Close()
	rl.currentFile = nil
	return err
}

// newLogger sends text to the console and, when file is set, JSON to the rotating file
func newLogger(consoleLevel, fileLevel slog.Level, file *RotatingLogger) *slog.Logger {
	consoleHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: consoleLevel})
	if file == nil {
		return slog.New(consoleHandler)
	}

	return slog.New(&multiHandler{
		handlers: []slog.Handler{consoleHandler, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: fileLevel})},
	})
}

// multiHandler implements slog.Handler to write to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}
