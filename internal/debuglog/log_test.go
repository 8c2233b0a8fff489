package debuglog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LevelOff, "OFF"},
		{LogLevel(42), "UNKNOWN"},
	}

	for _, test := range tests {
		if got := test.level.String(); got != test.expected {
			t.Errorf("LogLevel.String() = %q, want %q", got, test.expected)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"DEBUG", LevelDebug},
		{"debug", LevelDebug},
		{" info ", LevelInfo},
		{"WARN", LevelWarn},
		{"WARNING", LevelWarn},
		{"error", LevelError},
		{"off", LevelOff},
		{"INVALID", LevelInfo},
		{"", LevelInfo},
	}

	for _, test := range tests {
		if got := ParseLogLevel(test.input); got != test.expected {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", test.input, got, test.expected)
		}
	}
}

func TestSetupWithLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "test.log")

	if err := Setup(LevelInfo, logPath); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	t.Cleanup(func() { _ = Setup(LevelOff, "") })

	if GetLevel() != LevelInfo {
		t.Errorf("GetLevel() = %v, want %v", GetLevel(), LevelInfo)
	}

	Debugf("debug message")
	Infof("info message")
	Warnf("warn message")
	Errorf("error message")

	if err := Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}

	logContent := string(content)
	if strings.Contains(logContent, "debug message") {
		t.Error("DEBUG message should not appear with INFO level")
	}
	for _, want := range []string{"[INFO] info message", "[WARN] warn message", "[ERROR] error message"} {
		if !strings.Contains(logContent, want) {
			t.Errorf("log should contain %q, got %q", want, logContent)
		}
	}
}

func TestSetupWithLevelOff(t *testing.T) {
	if err := Setup(LevelOff, ""); err != nil {
		t.Fatalf("Setup with LevelOff failed: %v", err)
	}

	if GetLevel() != LevelOff {
		t.Errorf("GetLevel() = %v, want %v", GetLevel(), LevelOff)
	}

	// Must not panic without a logger.
	Debugf("debug message")
	Errorf("error message")
	WithFields(map[string]any{"k": "v"}).Errorf("error message")
}

func TestFieldLoggerOrdersKeys(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(LevelDebug, &buf)
	t.Cleanup(func() { _ = Setup(LevelOff, "") })

	WithFields(map[string]any{
		"tag":        "cats",
		"generation": 3,
		"attempt":    1,
	}).Infof("fetched %d photos", 20)

	got := buf.String()
	if !strings.Contains(got, "[INFO] fetched 20 photos [attempt=1 generation=3 tag=cats]") {
		t.Errorf("unexpected field formatting: %q", got)
	}
}

func TestFieldLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(LevelWarn, &buf)
	t.Cleanup(func() { _ = Setup(LevelOff, "") })

	fl := WithFields(map[string]any{"tag": "dogs"})
	fl.Debugf("hidden")
	fl.Infof("hidden")
	fl.Warnf("shown")

	got := buf.String()
	if strings.Contains(got, "hidden") {
		t.Errorf("messages below WARN leaked: %q", got)
	}
	if !strings.Contains(got, "shown [tag=dogs]") {
		t.Errorf("WARN message missing: %q", got)
	}
}

func TestConcurrentLogging(t *testing.T) {
	var buf safeBuffer
	SetOutput(LevelDebug, &buf)
	t.Cleanup(func() { _ = Setup(LevelOff, "") })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			Debugf("worker %d", n)
		}(i)
	}
	wg.Wait()

	if got := strings.Count(buf.String(), "[DEBUG] worker"); got != 8 {
		t.Errorf("expected 8 lines, got %d", got)
	}
}

func TestSetLevel(t *testing.T) {
	SetLevel(LevelDebug)
	if GetLevel() != LevelDebug {
		t.Errorf("SetLevel(LevelDebug) failed, got %v", GetLevel())
	}

	SetLevel(LevelError)
	if GetLevel() != LevelError {
		t.Errorf("SetLevel(LevelError) failed, got %v", GetLevel())
	}
	SetLevel(LevelOff)
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
