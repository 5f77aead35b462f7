package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/spigell/talent-intake/internal/session"
)

func validConfig() *Config {
	return &Config{
		Session: SessionConfig{Backend: session.BackendMemory, Retention: 720 * time.Hour},
		AI:      &AIConfig{Provider: "gemini", Gemini: &GeminiConfig{}},
		JobSources: map[string]JobSourceConfig{
			"main": {Type: jobSourceFile, Path: "jobs.yaml"},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		storageOnly bool
		wantErr     string
		wantWarn    string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "no retention",
			mutate:  func(c *Config) { c.Session.Retention = 0 },
			wantErr: "session.retention",
		},
		{
			name:    "redis store without url",
			mutate:  func(c *Config) { c.Session.Backend = session.BackendRedis },
			wantErr: "redis-url",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.AI.Provider = "openai" },
			wantErr: "ai.provider",
		},
		{
			name:        "storage only skips provider",
			mutate:      func(c *Config) { c.AI.Provider = "openai" },
			storageOnly: true,
		},
		{
			name:    "postgres without database url",
			mutate:  func(c *Config) { c.JobSources["pg"] = JobSourceConfig{Type: jobSourcePostgres} },
			wantErr: "job-sources.pg needs database-url",
		},
		{
			name:    "unknown source type",
			mutate:  func(c *Config) { c.JobSources["x"] = JobSourceConfig{Type: "ftp"} },
			wantErr: `unknown type "ftp"`,
		},
		{
			name:     "default job file",
			mutate:   func(c *Config) { c.JobSources = nil },
			wantWarn: defaultJobsFile,
		},
		{
			name:     "local job cache",
			mutate:   func(c *Config) { c.JobCache.TTL = time.Minute },
			wantWarn: "in-memory only",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			warnings, err := c.validate(tt.storageOnly)
			if tt.wantErr == "" && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
			if tt.wantWarn != "" && !strings.Contains(strings.Join(warnings, "\n"), tt.wantWarn) {
				t.Fatalf("expected warning containing %q, got %v", tt.wantWarn, warnings)
			}
		})
	}
}

func TestChatEvent(t *testing.T) {
	ev, err := chatEvent("console", "acme", "I worked 3 years as a cook")
	if err != nil || ev.Media != nil || ev.Text != "I worked 3 years as a cook" || ev.TenantID != "acme" {
		t.Fatalf("unexpected text event: %+v %v", ev, err)
	}

	ev, err = chatEvent("console", "acme", "/doc https://files.example/cv.PDF")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Text != "" || ev.Media == nil || ev.Media.MIMEType != "application/pdf" {
		t.Fatalf("unexpected document event: %+v", ev)
	}

	ev, _ = chatEvent("console", "acme", "/doc https://files.example/scan image/heic")
	if ev.Media.MIMEType != "image/heic" {
		t.Fatalf("explicit type ignored: %+v", ev.Media)
	}

	if _, err := chatEvent("console", "acme", "/doc"); err == nil {
		t.Fatal("expected usage error")
	}
}
