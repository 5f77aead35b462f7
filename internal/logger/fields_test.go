package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFieldsDropsBlankPairs(t *testing.T) {
	fields := StringFields(
		StringField{Key: " identity ", Value: " wa:1 "},
		StringField{Key: FieldStage, Value: "\t"},
		StringField{Key: "", Value: "orphan"},
	)
	if len(fields) != 1 || fields[0].Key != "identity" || fields[0].String != "wa:1" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
	if got := StringFields(); len(got) != 0 {
		t.Fatalf("expected no fields, got %+v", got)
	}
}

func TestFieldHelpersEnrichLogger(t *testing.T) {
	tests := []struct {
		name   string
		build  func(*zap.Logger) *zap.Logger
		want   map[string]string
		absent []string
	}{
		{
			name:  "model provider",
			build: func(l *zap.Logger) *zap.Logger { return WithCommonFields(l, " gemini ", "flash") },
			want:  map[string]string{FieldProvider: "gemini", FieldModel: "flash"},
		},
		{
			name:   "provider without model",
			build:  func(l *zap.Logger) *zap.Logger { return WithFields(l, CommonFields("gemini", "")...) },
			want:   map[string]string{FieldProvider: "gemini"},
			absent: []string{FieldModel},
		},
		{
			name: "session without stage",
			build: func(l *zap.Logger) *zap.Logger {
				return WithFields(l, SessionFields("wa:123", "acme", "")...)
			},
			want:   map[string]string{FieldIdentity: "wa:123", FieldTenant: "acme"},
			absent: []string{FieldStage},
		},
		{
			name: "full session",
			build: func(l *zap.Logger) *zap.Logger {
				return WithFields(l, SessionFields("wa:9", "acme", "collecting_data")...)
			},
			want: map[string]string{FieldIdentity: "wa:9", FieldTenant: "acme", FieldStage: "collecting_data"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, observed := observer.New(zapcore.InfoLevel)
			tt.build(zap.New(core)).Info("turn")

			entries := observed.All()
			if len(entries) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(entries))
			}
			ctx := entries[0].ContextMap()
			for k, v := range tt.want {
				if ctx[k] != v {
					t.Fatalf("%s: expected %q, got %v", k, v, ctx[k])
				}
			}
			for _, k := range tt.absent {
				if _, ok := ctx[k]; ok {
					t.Fatalf("%s should be omitted: %v", k, ctx)
				}
			}
		})
	}
}

func TestNilLoggerFallsBackToNop(t *testing.T) {
	for _, l := range []*zap.Logger{
		WithFields(nil, zap.String("k", "v")),
		WithCommonFields(nil, "gemini", "flash"),
	} {
		if l == nil {
			t.Fatal("expected a logger")
		}
		l.Info("discarded")
	}
}
