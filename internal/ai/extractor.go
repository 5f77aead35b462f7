package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spigell/talent-intake/internal/logger"
	"github.com/spigell/talent-intake/internal/schema"
	"github.com/spigell/talent-intake/internal/utils"
	"go.uber.org/zap"
)

const defaultMaxLogLength = 200

// Extractor turns generator output into records validated against the request schema.
type Extractor struct {
	generator Generator
	logger    *zap.Logger
	maxLogLen int
}

// NewExtractor wraps generator. A non-positive maxLogLength uses the default preview size.
func NewExtractor(generator Generator, log *zap.Logger, maxLogLength int) *Extractor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Extractor{
		generator: generator,
		logger:    logger.WithFields(log, logger.CommonFields(generator.Provider(), "")...),
		maxLogLen: maxLogLength,
	}
}

// Extract runs req and validates the answer. Any failure is returned to the
// caller, which decides on a fallback.
func (e *Extractor) Extract(ctx context.Context, req Request) (schema.Record, error) {
	if req.Schema == nil {
		return nil, errors.New("extraction request needs a schema")
	}

	prompt := lastUserText(req)
	e.logger.Debug("extraction request",
		zap.String("schema", req.Schema.Name),
		zap.String("model_class", string(req.Model)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", req.Schema.Name, err)
	}

	e.logger.Debug("extraction response",
		zap.String("schema", req.Schema.Name),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	data, err := ParseObject(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", req.Schema.Name, err)
	}

	rec, err := req.Schema.Validate(data)
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// ExtractInto runs Extract and decodes the record into out.
func (e *Extractor) ExtractInto(ctx context.Context, req Request, out any) error {
	rec, err := e.Extract(ctx, req)
	if err != nil {
		return err
	}
	return schema.Decode(rec, out)
}

// ParseObject decodes a JSON object from raw model output, tolerating code
// fences and a single-element array wrapper.
func ParseObject(raw string) (map[string]any, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return nil, ErrEmptyResponse
	}

	var data any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch val := data.(type) {
	case map[string]any:
		return val, nil
	case []any:
		if len(val) == 1 {
			if obj, ok := val[0].(map[string]any); ok {
				return obj, nil
			}
		}
	}

	return nil, ErrMalformed
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func lastUserText(req Request) string {
	for i := len(req.Turns) - 1; i >= 0; i-- {
		if req.Turns[i].Role == RoleUser {
			return req.Turns[i].Text
		}
	}
	return ""
}
