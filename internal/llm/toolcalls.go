package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// NormalizeToolCallIDs ensures every tool call has a stable identifier.
// The API occasionally omits call IDs, which breaks follow-up requests that
// require tool_call_id on tool messages.
func NormalizeToolCallIDs(toolCalls []map[string]interface{}) []map[string]interface{} {
	for i, tc := range toolCalls {
		if tc == nil {
			continue
		}

		id := firstNonEmptyString(tc["id"], tc["call_id"])
		if strings.TrimSpace(id) == "" {
			if name := ToolCallName(tc); name != "" {
				id = fmt.Sprintf("call_%s_%d", sanitizeToolName(name), i+1)
			}
		}
		if strings.TrimSpace(id) == "" {
			id = fmt.Sprintf("call_%d", i+1)
		}

		tc["id"] = id
	}
	return toolCalls
}

// ToolCallID returns the identifier of a tool call, empty when absent.
func ToolCallID(tc map[string]interface{}) string {
	return firstNonEmptyString(tc["id"], tc["call_id"])
}

// ToolCallName extracts the function name from a tool call.
func ToolCallName(tc map[string]interface{}) string {
	if tc == nil {
		return ""
	}
	fn, ok := tc["function"].(map[string]interface{})
	if !ok {
		return ""
	}
	name, _ := fn["name"].(string)
	return strings.TrimSpace(name)
}

// ToolCallArguments decodes the JSON argument payload of a tool call.
// A missing or empty payload decodes to an empty map.
func ToolCallArguments(tc map[string]interface{}) (map[string]interface{}, error) {
	args := make(map[string]interface{})
	if tc == nil {
		return args, nil
	}

	fn, ok := tc["function"].(map[string]interface{})
	if !ok {
		return args, nil
	}

	switch raw := fn["arguments"].(type) {
	case nil:
		return args, nil
	case string:
		if strings.TrimSpace(raw) == "" {
			return args, nil
		}
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return nil, fmt.Errorf("invalid tool call arguments: %w", err)
		}
		return args, nil
	case map[string]interface{}:
		return raw, nil
	default:
		return nil, fmt.Errorf("invalid tool call arguments type %T", raw)
	}
}

func firstNonEmptyString(values ...interface{}) string {
	for _, v := range values {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func sanitizeToolName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
