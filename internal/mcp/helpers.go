package mcp

import (
	mcpgo "github.com/mark3labs/mcp-go/mcp"
)

// Schema keys some model APIs reject in tool parameter schemas.
// MCP servers are free to emit them, so they get stripped at the bridge.
var strippedSchemaKeys = []string{"$ref", "$defs", "additionalProperties"}

// inputSchemaToMap converts mcp.ToolInputSchema to the map format
// expected by tools.Tool.Parameters(), stripping schema keys the
// model side cannot handle.
func inputSchemaToMap(schema mcpgo.ToolInputSchema) map[string]any {
	m := map[string]any{
		"type": schema.Type,
	}
	if schema.Type == "" {
		m["type"] = "object"
	}
	if len(schema.Properties) > 0 {
		m["properties"] = cleanSchema(schema.Properties)
	}
	if len(schema.Required) > 0 {
		m["required"] = schema.Required
	}
	return m
}

// cleanSchema recursively removes stripped keys from a JSON Schema map.
func cleanSchema(schema map[string]any) map[string]any {
	if schema == nil {
		return nil
	}

	result := make(map[string]any, len(schema))
	for k, v := range schema {
		if isStrippedKey(k) {
			continue
		}

		switch val := v.(type) {
		case map[string]any:
			result[k] = cleanSchema(val)
		case []any:
			result[k] = cleanSchemaSlice(val)
		default:
			result[k] = v
		}
	}
	return result
}

// cleanSchemaSlice recurses into arrays (e.g. "anyOf", "oneOf", "allOf").
func cleanSchemaSlice(items []any) []any {
	result := make([]any, len(items))
	for i, item := range items {
		if m, ok := item.(map[string]any); ok {
			result[i] = cleanSchema(m)
		} else {
			result[i] = item
		}
	}
	return result
}

func isStrippedKey(key string) bool {
	for _, sk := range strippedSchemaKeys {
		if key == sk {
			return true
		}
	}
	return false
}
