package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Field keys shared across packages.
const (
	FieldProvider = "ai_provider"
	FieldModel    = "ai_model"
	FieldIdentity = "identity"
	FieldTenant   = "tenant_id"
	FieldStage    = "stage"
)

// StringField is a string-valued log field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts pairs into zap fields. Keys and values are trimmed and
// pairs with an empty side are dropped, so callers can pass unknown values as "".
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		key, value := strings.TrimSpace(f.Key), strings.TrimSpace(f.Value)
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}
	return result
}

// WithFields attaches fields to log. A nil log becomes a no-op logger.
func WithFields(log *zap.Logger, fields ...zap.Field) *zap.Logger {
	if log == nil {
		log = zap.NewNop()
	}
	if len(fields) == 0 {
		return log
	}
	return log.With(fields...)
}

// CommonFields describe the model provider behind a log line.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

func WithCommonFields(log *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(log, CommonFields(provider, model)...)
}

// SessionFields identify the conversation a log line belongs to.
func SessionFields(identity, tenant, stage string) []zap.Field {
	return StringFields(
		StringField{Key: FieldIdentity, Value: identity},
		StringField{Key: FieldTenant, Value: tenant},
		StringField{Key: FieldStage, Value: stage},
	)
}
