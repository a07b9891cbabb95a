package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRotatingLogger(t *testing.T) {
	tempDir := t.TempDir()

	rl, err := OpenRotatingLogger(tempDir, 1, 0)
	if err != nil {
		t.Fatalf("OpenRotatingLogger() error = %v", err)
	}
	defer rl.Close()

	expectedFileName := filepath.Join(tempDir, "app-"+getWeekKey(time.Now())+".log")
	if _, statErr := os.Stat(expectedFileName); os.IsNotExist(statErr) {
		t.Fatalf("Expected log file %s was not created", expectedFileName)
	}

	testMessage := "Test log message"
	if _, err := rl.Write([]byte(testMessage)); err != nil {
		t.Fatalf("Failed to write to log: %v", err)
	}

	content, err := os.ReadFile(expectedFileName)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), testMessage) {
		t.Errorf("Log file does not contain test message: %s", string(content))
	}
}

func TestGetWeekKey(t *testing.T) {
	testTime := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	if got := getWeekKey(testTime); got != "2026-W43" {
		t.Errorf("Expected week key 2026-W43, got %s", got)
	}
}

func TestCleanupOldLogsOnOpen(t *testing.T) {
	tempDir := t.TempDir()

	oldFile := filepath.Join(tempDir, "app-2025-W30.log")
	otherFile := filepath.Join(tempDir, "keep.txt")
	for _, path := range []string{oldFile, otherFile} {
		if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
			t.Fatalf("Failed to create %s: %v", path, err)
		}
		threeWeeksAgo := time.Now().AddDate(0, 0, -21)
		if err := os.Chtimes(path, threeWeeksAgo, threeWeeksAgo); err != nil {
			t.Fatalf("Failed to set modification time: %v", err)
		}
	}

	rl, err := OpenRotatingLogger(tempDir, 1, 0)
	if err != nil {
		t.Fatalf("OpenRotatingLogger() error = %v", err)
	}
	defer rl.Close()

	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Errorf("Old log file %s was not deleted", oldFile)
	}
	if _, err := os.Stat(otherFile); err != nil {
		t.Errorf("Non-log file %s should be kept, got %v", otherFile, err)
	}
}

func TestRotatingLoggerWithSizeLimit(t *testing.T) {
	tempDir := t.TempDir()

	rl, err := OpenRotatingLogger(tempDir, 1, 100)
	if err != nil {
		t.Fatalf("OpenRotatingLogger() error = %v", err)
	}
	defer rl.Close()

	if _, err := rl.Write([]byte("Small message")); err != nil {
		t.Fatalf("Failed to write small message: %v", err)
	}

	largeMessage := strings.Repeat("This is a very long log message that should trigger rotation. ", 10)
	if _, err := rl.Write([]byte(largeMessage)); err != nil {
		t.Fatalf("Failed to write large message: %v", err)
	}

	numbered := filepath.Join(tempDir, "app-"+getWeekKey(time.Now())+"_01.log")
	content, err := os.ReadFile(numbered)
	if err != nil {
		t.Fatalf("Expected size-rotated file %s: %v", numbered, err)
	}
	if string(content) != largeMessage {
		t.Errorf("Size-rotated file should hold only the large message, got %d bytes", len(content))
	}
}

func TestRotatingLoggerSkipsFullFiles(t *testing.T) {
	tempDir := t.TempDir()
	week := getWeekKey(time.Now())

	full := strings.Repeat("x", 100)
	for _, name := range []string{"app-" + week + ".log", "app-" + week + "_01.log"} {
		if err := os.WriteFile(filepath.Join(tempDir, name), []byte(full), 0644); err != nil {
			t.Fatalf("Failed to seed %s: %v", name, err)
		}
	}

	rl, err := OpenRotatingLogger(tempDir, 1, 100)
	if err != nil {
		t.Fatalf("OpenRotatingLogger() error = %v", err)
	}
	defer rl.Close()

	if _, err := rl.Write([]byte("fresh")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	content, err := os.ReadFile(filepath.Join(tempDir, "app-"+week+"_02.log"))
	if err != nil {
		t.Fatalf("Expected write to land in _02 file: %v", err)
	}
	if string(content) != "fresh" {
		t.Errorf("Unexpected content %q", content)
	}
}

func TestRotatingLoggerErrorCases(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	if _, err := OpenRotatingLogger(filepath.Join(file, "logs"), 1, 0); err == nil {
		t.Error("Expected error when the log directory cannot be created")
	}

	rl := &RotatingLogger{}
	rl.currentWeek = getWeekKey(time.Now())
	if _, err := rl.Write([]byte("test message")); err == nil {
		t.Error("Expected error when no log file is open")
	}
}

func TestRotatingLoggerConcurrentWrites(t *testing.T) {
	tempDir := t.TempDir()

	rl, err := OpenRotatingLogger(tempDir, 1, 0)
	if err != nil {
		t.Fatalf("OpenRotatingLogger() error = %v", err)
	}

	const writers = 10
	const perWriter = 50
	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWriter {
				_, _ = rl.Write([]byte("line\n"))
			}
		}()
	}
	wg.Wait()
	_ = rl.Close()

	content, err := os.ReadFile(filepath.Join(tempDir, "app-"+getWeekKey(time.Now())+".log"))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if lines := strings.Count(string(content), "line\n"); lines != writers*perWriter {
		t.Errorf("Expected %d lines, got %d", writers*perWriter, lines)
	}
}

func TestMultiHandlerMethods(t *testing.T) {
	var infoOut, debugOut strings.Builder
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&infoOut, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&debugOut, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}}

	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Expected debug to be enabled when any handler enables it")
	}

	logger := slog.New(h).With("component", "templates").WithGroup("fetch")
	logger.Debug("only debug", "url", "u")
	logger.Info("both")

	if strings.Contains(infoOut.String(), "only debug") {
		t.Error("Info handler should not receive debug records")
	}
	if !strings.Contains(debugOut.String(), "only debug") || !strings.Contains(debugOut.String(), "fetch.url=u") {
		t.Errorf("Debug handler missing record or group, got: %s", debugOut.String())
	}
	if !strings.Contains(infoOut.String(), "component=templates") {
		t.Errorf("Expected attrs on info handler, got: %s", infoOut.String())
	}
}
