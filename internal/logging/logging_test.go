package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		debug   bool
		verbose int
		want    hclog.Level
	}{
		{"default is warn", false, 0, hclog.Warn},
		{"verbose is info", false, 1, hclog.Info},
		{"double verbose is still info", false, 2, hclog.Info},
		{"debug wins", true, 0, hclog.Debug},
		{"debug wins over verbose", true, 3, hclog.Debug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.debug, tt.verbose); got != tt.want {
				t.Errorf("ParseLevel(%v, %d) = %v, want %v", tt.debug, tt.verbose, got, tt.want)
			}
		})
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input string
		want  hclog.Level
	}{
		{"debug", hclog.Debug},
		{"DEBUG", hclog.Debug},
		{" info ", hclog.Info},
		{"trace", hclog.Trace},
		{"error", hclog.Error},
		{"warn", hclog.Warn},
		{"", hclog.Warn},
		{"bogus", hclog.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := LevelFromString(tt.input); got != tt.want {
				t.Errorf("LevelFromString(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInitWithLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "jukebox.log")

	if err := Init(Options{Level: hclog.Info, LogFile: logPath}); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	defer func() {
		Close()
		// Restore quiet defaults for other tests.
		if err := Init(Options{Level: hclog.Warn}); err != nil {
			t.Fatalf("restore Init() error: %v", err)
		}
	}()

	Debug("file sink receives debug", "key", "value")
	Info("file sink receives info")
	Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "file sink receives debug") {
		t.Errorf("log file missing debug line, got:\n%s", content)
	}
	if !strings.Contains(content, "file sink receives info") {
		t.Errorf("log file missing info line, got:\n%s", content)
	}
}

func TestInitTruncatesExisting(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "jukebox.log")
	if err := os.WriteFile(logPath, []byte("stale previous run\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Init(Options{Level: hclog.Warn, LogFile: logPath}); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	Close()
	defer func() {
		if err := Init(Options{Level: hclog.Warn}); err != nil {
			t.Fatal(err)
		}
	}()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "stale previous run") {
		t.Error("Init() should truncate an existing log file")
	}
}
