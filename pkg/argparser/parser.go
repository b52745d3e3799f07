// Package argparser turns raw command-line tool arguments into the
// structured payload a tool expects.
package argparser

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Parse converts key=value pairs into a tool argument map. When a schema is
// provided (a JSON Schema "properties" object), values are coerced to the
// declared types; otherwise each value is inferred from its literal form.
func Parse(pairs []string, schema map[string]any) (map[string]any, error) {
	args := make(map[string]any, len(pairs))
	properties, _ := schema["properties"].(map[string]any)

	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("argument %q is not in key=value form", pair)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("argument %q has an empty key", pair)
		}

		value, err := coerce(raw, propertyType(properties, key))
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", key, err)
		}
		args[key] = value
	}

	if err := checkRequired(schema, args); err != nil {
		return nil, err
	}
	return args, nil
}

func propertyType(properties map[string]any, key string) string {
	prop, ok := properties[key].(map[string]any)
	if !ok {
		return ""
	}
	typ, _ := prop["type"].(string)
	return typ
}

// coerce applies the declared type, or infers one from the literal when the
// schema is silent.
func coerce(raw, typ string) (any, error) {
	switch typ {
	case "string":
		return raw, nil
	case "integer":
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected an integer, got %q", raw)
		}
		return n, nil
	case "number":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", raw)
		}
		return f, nil
	case "boolean":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("expected a boolean, got %q", raw)
		}
		return b, nil
	case "array", "object":
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("expected JSON, got %q", raw)
		}
		return v, nil
	}
	return infer(raw), nil
}

func infer(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil && (raw == "true" || raw == "false") {
		return b
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "[") {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			return v
		}
	}
	return raw
}

func checkRequired(schema, args map[string]any) error {
	required, _ := schema["required"].([]any)
	for _, entry := range required {
		name, ok := entry.(string)
		if !ok {
			continue
		}
		if _, present := args[name]; !present {
			return fmt.Errorf("missing required argument %q", name)
		}
	}
	return nil
}
