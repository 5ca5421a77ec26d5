package mcp

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/PEZ/joyride-ai-chat/internal/tools"
)

// BridgeTool adapts an MCP tool into the tools.RawTool interface.
// Calls are delegated to the MCP server via the client; results come
// back as a content tree for the dispatcher to flatten.
type BridgeTool struct {
	serverName     string
	toolName       string // original MCP tool name
	registeredName string // may include prefix: "{prefix}__{toolName}"
	description    string
	inputSchema    map[string]any // JSON Schema for parameters
	client         *mcpclient.Client
	timeoutSec     int
	connected      *atomic.Bool
}

// NewBridgeTool creates a BridgeTool from an MCP Tool definition.
func NewBridgeTool(serverName string, mcpTool mcpgo.Tool, client *mcpclient.Client, prefix string, timeoutSec int, connected *atomic.Bool) *BridgeTool {
	name := mcpTool.Name
	registered := name
	if prefix != "" {
		registered = prefix + "__" + name
	}

	if timeoutSec <= 0 {
		timeoutSec = 60
	}

	schema := inputSchemaToMap(mcpTool.InputSchema)

	return &BridgeTool{
		serverName:     serverName,
		toolName:       name,
		registeredName: registered,
		description:    mcpTool.Description,
		inputSchema:    schema,
		client:         client,
		timeoutSec:     timeoutSec,
		connected:      connected,
	}
}

func (t *BridgeTool) Name() string               { return t.registeredName }
func (t *BridgeTool) Description() string        { return t.description }
func (t *BridgeTool) Parameters() map[string]any { return t.inputSchema }

// ServerName returns the name of the MCP server this tool belongs to.
func (t *BridgeTool) ServerName() string { return t.serverName }

// OriginalName returns the original MCP tool name (without prefix).
func (t *BridgeTool) OriginalName() string { return t.toolName }

// ExecuteRaw calls the MCP tool and returns its content blocks as a
// node tree. Error results from the server surface as Go errors.
func (t *BridgeTool) ExecuteRaw(ctx context.Context, args map[string]any) (any, error) {
	if !t.connected.Load() {
		return nil, fmt.Errorf("MCP server %q is disconnected", t.serverName)
	}

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(t.timeoutSec)*time.Second)
	defer cancel()

	req := mcpgo.CallToolRequest{}
	req.Params.Name = t.toolName
	req.Params.Arguments = args

	result, err := t.client.CallTool(callCtx, req)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("MCP tool %q timeout after %ds", t.registeredName, t.timeoutSec)
		}
		return nil, fmt.Errorf("MCP tool %q error: %w", t.registeredName, err)
	}

	tree := contentTree(result)

	if result.IsError {
		return nil, fmt.Errorf("MCP tool %q failed: %s", t.registeredName, tools.ExtractText(tree))
	}

	return tree, nil
}

// Execute satisfies the plain Tool interface for callers that bypass
// the raw path.
func (t *BridgeTool) Execute(ctx context.Context, args map[string]any) *tools.Result {
	payload, err := t.ExecuteRaw(ctx, args)
	if err != nil {
		return tools.ErrorResult(err.Error()).WithError(err)
	}
	return tools.NewResult(tools.ExtractText(payload))
}

// contentTree builds a node tree from the content blocks of a
// CallToolResult. Blocks are separated by newlines; non-text blocks
// (image, audio) are noted by type.
func contentTree(result *mcpgo.CallToolResult) *tools.Node {
	root := &tools.Node{}
	if result == nil || len(result.Content) == 0 {
		return root
	}

	for i, c := range result.Content {
		if i > 0 {
			root.Children = append(root.Children, &tools.Node{Text: "\n"})
		}
		switch v := c.(type) {
		case mcpgo.TextContent:
			root.Children = append(root.Children, &tools.Node{Text: v.Text})
		case *mcpgo.TextContent:
			root.Children = append(root.Children, &tools.Node{Text: v.Text})
		default:
			root.Children = append(root.Children, &tools.Node{Text: fmt.Sprintf("[non-text content: %T]", c)})
		}
	}
	return root
}
