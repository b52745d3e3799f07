package tasky

import (
	"encoding/json"
	"strings"
)

// CallParams is the params object of a tools/call request.
type CallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolDefinition describes one tool advertised by the endpoint.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

// listResult is the result object of a tools/list response.
type listResult struct {
	Tools []ToolDefinition `json:"tools"`
}

// contentPart is one element of an array-shaped tools/call result. Text
// fragments carry {type:"text", text:...}; anything else is arbitrary.
type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// normalizeResult reduces a tools/call result to one display string. The
// endpoint may answer with a bare string, an array of parts, or any other
// structured payload.
func normalizeResult(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err == nil {
		lines := make([]string, 0, len(parts))
		for _, part := range parts {
			lines = append(lines, normalizePart(part))
		}
		return strings.Join(lines, "\n")
	}

	return compactJSON(raw)
}

func normalizePart(raw json.RawMessage) string {
	var part contentPart
	if err := json.Unmarshal(raw, &part); err == nil && part.Type == "text" {
		return part.Text
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	return compactJSON(raw)
}

func compactJSON(raw json.RawMessage) string {
	var buf strings.Builder
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return string(raw)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
