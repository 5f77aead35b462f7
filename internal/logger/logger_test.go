package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNewWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(path, true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log.Debug("hidden")
	log.Info("stage advanced", zap.String(FieldStage, "collecting_data"), zap.Duration("took", time.Second))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line at info level, got %d: %s", len(lines), data)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("line is not json: %v", err)
	}
	if entry["step"] != "stage advanced" || entry["stage"] != "collecting_data" || entry["took"] != "1s" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}
