package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// nullWords are string values models use in place of a JSON null.
var nullWords = map[string]bool{
	"":                true,
	"null":            true,
	"none":            true,
	"n/a":             true,
	"na":              true,
	"unknown":         true,
	"not specified":   true,
	"not provided":    true,
	"no especificado": true,
}

var numberRe = regexp.MustCompile(`-?\d+(?:[.,]\d+)?`)

func isNull(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return nullWords[strings.ToLower(strings.TrimSpace(s))]
	}
	return false
}

// coerce converts raw into the declared kind. A non-empty reason means the
// value could not be interpreted without guessing.
func coerce(field Field, raw any, strict bool) (any, string) {
	switch field.Kind {
	case KindString:
		s := coerceString(raw)
		if s == "" {
			return nil, "is empty"
		}
		if field.MaxLength > 0 && utf8.RuneCountInString(s) > field.MaxLength {
			if strict {
				return nil, fmt.Sprintf("exceeds %d characters", field.MaxLength)
			}
			s = string([]rune(s)[:field.MaxLength])
		}
		return s, ""
	case KindStringList:
		list, ok := coerceStringList(raw)
		if !ok {
			return nil, "is not a list of strings"
		}
		if field.MaxItems > 0 && len(list) > field.MaxItems {
			if strict {
				return nil, fmt.Sprintf("has more than %d items", field.MaxItems)
			}
			list = list[:field.MaxItems]
		}
		return list, ""
	case KindEnum:
		return coerceEnum(field, raw, strict)
	case KindInteger:
		f, ok := coerceFloat(raw)
		if !ok {
			return nil, "is not a number"
		}
		if strict && f != math.Trunc(f) {
			return nil, "is not an integer"
		}
		f, reason := applyRange(field, math.Round(f), strict)
		if reason != "" {
			return nil, reason
		}
		return int(f), ""
	case KindNumber:
		f, ok := coerceFloat(raw)
		if !ok {
			return nil, "is not a number"
		}
		f, reason := applyRange(field, f, strict)
		if reason != "" {
			return nil, reason
		}
		return f, ""
	case KindBool:
		b, ok := coerceBool(raw)
		if !ok {
			return nil, "is not a boolean"
		}
		return b, ""
	case KindObjectList:
		return coerceObjectList(field, raw, strict)
	default:
		return nil, fmt.Sprintf("has unsupported kind %s", field.Kind)
	}
}

func applyRange(field Field, f float64, strict bool) (float64, string) {
	if field.Range == nil {
		return f, ""
	}
	if f < field.Range.Min || f > field.Range.Max {
		if strict {
			return 0, fmt.Sprintf("is outside [%g, %g]", field.Range.Min, field.Range.Max)
		}
		f = math.Max(field.Range.Min, math.Min(field.Range.Max, f))
	}
	return f, ""
}

// coerceString flattens arrays and objects into a single readable string.
func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(val)
		if nullWords[strings.ToLower(s)] {
			return ""
		}
		return s
	case []string:
		return joinNonEmpty(val, ", ")
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, coerceString(item))
		}
		return joinNonEmpty(parts, ", ")
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			s := coerceString(val[k])
			if s == "" {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s: %s", k, s))
		}
		return strings.Join(parts, "; ")
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

func coerceStringList(v any) ([]string, bool) {
	var items []string
	switch val := v.(type) {
	case []string:
		items = val
	case []any:
		for _, item := range val {
			items = append(items, coerceString(item))
		}
	case string:
		items = strings.FieldsFunc(val, func(r rune) bool {
			return r == ',' || r == ';' || r == '\n' || r == '•'
		})
	default:
		return nil, false
	}

	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.Trim(strings.TrimSpace(item), "-*")
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if nullWords[key] || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out, true
}

func coerceEnum(field Field, raw any, strict bool) (any, string) {
	s := coerceString(raw)
	if s == "" {
		return nil, "is empty"
	}
	for _, allowed := range field.Enum {
		if strings.EqualFold(s, allowed) {
			return allowed, ""
		}
	}
	if field.Normalize != nil && !strict {
		if normalized := field.Normalize(s); normalized != "" {
			for _, allowed := range field.Enum {
				if strings.EqualFold(normalized, allowed) {
					return allowed, ""
				}
			}
		}
	}
	return nil, fmt.Sprintf("value %q is not one of %s", s, strings.Join(field.Enum, ", "))
}

func coerceFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, !math.IsNaN(val) && !math.IsInf(val, 0)
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		trimmed := strings.TrimSpace(val)
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return f, true
		}
		// "5 years" is fine, "3-5 years" is a guess.
		matches := numberRe.FindAllString(trimmed, -1)
		if len(matches) != 1 {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.Replace(matches[0], ",", ".", 1), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func coerceBool(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case float64:
		return val != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "yes", "y", "1", "si", "sí":
			return true, true
		case "false", "no", "n", "0":
			return false, true
		}
	}
	return false, false
}

func coerceObjectList(field Field, raw any, strict bool) (any, string) {
	var items []any
	switch val := raw.(type) {
	case []any:
		items = val
	case map[string]any:
		items = []any{val}
	case []map[string]any:
		for _, m := range val {
			items = append(items, m)
		}
	default:
		return nil, "is not a list of objects"
	}

	element := &Schema{Name: field.Name, Fields: field.Fields, Strict: strict}
	out := make([]any, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			if strict {
				return nil, fmt.Sprintf("item %d is not an object", i)
			}
			continue
		}
		rec, err := element.Validate(obj)
		if err != nil {
			if strict {
				return nil, fmt.Sprintf("item %d: %v", i, err)
			}
			continue
		}
		out = append(out, map[string]any(rec))
	}
	if field.MaxItems > 0 && len(out) > field.MaxItems {
		if strict {
			return nil, fmt.Sprintf("has more than %d items", field.MaxItems)
		}
		out = out[:field.MaxItems]
	}
	return out, ""
}

func joinNonEmpty(parts []string, sep string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
