package tools

import (
	"encoding/json"
	"fmt"
)

// Result is the unified return type from tool execution.
type Result struct {
	ForLLM  string `json:"for_llm"`  // content sent to the LLM
	IsError bool   `json:"is_error"` // marks error
	Err     error  `json:"-"`        // internal error (not serialized)
}

func NewResult(forLLM string) *Result {
	return &Result{ForLLM: forLLM}
}

func ErrorResult(message string) *Result {
	return &Result{ForLLM: message, IsError: true}
}

func (r *Result) WithError(err error) *Result {
	r.Err = err
	return r
}

// Node is a structured text tree, the shape raw tool payloads commonly
// arrive in (MCP content blocks, nested document fragments).
type Node struct {
	Text     string  `json:"text,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// ExtractText reduces an opaque tool payload to plain text:
// node-shaped trees are concatenated depth-first left-to-right, plain
// strings pass through, anything else falls back to a generic rendering.
func ExtractText(payload any) string {
	switch v := payload.(type) {
	case nil:
		return ""
	case string:
		return v
	case *Node:
		return flattenNode(v)
	case Node:
		return flattenNode(&v)
	case map[string]any:
		if n := nodeFromMap(v); n != nil {
			return flattenNode(n)
		}
	}
	if data, err := json.Marshal(payload); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", payload)
}

func flattenNode(n *Node) string {
	if n == nil {
		return ""
	}
	out := n.Text
	for _, c := range n.Children {
		out += flattenNode(c)
	}
	return out
}

// nodeFromMap recognizes JSON-decoded node trees: maps carrying a "text"
// string and/or a "children" array. Returns nil for any other map shape.
func nodeFromMap(m map[string]any) *Node {
	text, hasText := m["text"].(string)
	children, hasChildren := m["children"].([]any)
	if !hasText && !hasChildren {
		return nil
	}

	n := &Node{Text: text}
	for _, raw := range children {
		cm, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if child := nodeFromMap(cm); child != nil {
			n.Children = append(n.Children, child)
		}
	}
	return n
}
