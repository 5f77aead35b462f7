package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "key")
	if err := os.WriteFile(file, []byte(" from-file \n"), 0o600); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("  "), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TALENT_INTAKE_TEST_SECRET", "from-env")

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr bool
	}{
		{"file wins", Source{File: file, Env: "TALENT_INTAKE_TEST_SECRET", Value: "inline"}, "from-file", false},
		{"env beats value", Source{Env: "TALENT_INTAKE_TEST_SECRET", Value: "inline"}, "from-env", false},
		{"unset env falls back", Source{Env: "TALENT_INTAKE_TEST_UNSET", Value: "inline"}, "inline", false},
		{"empty file", Source{File: empty, Value: "inline"}, "", true},
		{"missing file", Source{File: filepath.Join(dir, "nope")}, "", true},
		{"nothing", Source{Name: "api key"}, "", true},
		{"optional unset", Source{Env: "TALENT_INTAKE_TEST_UNSET", Optional: true}, "", false},
		{"optional keeps file errors", Source{File: empty, Optional: true}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if err != nil && tt.src.File == "" && !errors.Is(err, ErrNotConfigured) {
				t.Fatalf("expected ErrNotConfigured, got %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
