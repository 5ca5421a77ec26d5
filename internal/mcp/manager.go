package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/PEZ/joyride-ai-chat/internal/config"
)

// Manager owns the MCP client connections and the bridge tools built
// from each server's tool listing.
type Manager struct {
	log     *slog.Logger
	clients map[string]*serverConn
	tools   []*BridgeTool
}

type serverConn struct {
	client    *mcpclient.Client
	connected *atomic.Bool
}

func NewManager(log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		log:     log,
		clients: make(map[string]*serverConn),
	}
}

// ConnectAll connects every configured server. A server that fails to
// connect is logged and skipped; the rest keep working.
func (m *Manager) ConnectAll(ctx context.Context, servers map[string]config.MCPServerConfig) {
	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := m.Connect(ctx, name, servers[name]); err != nil {
			m.log.Warn("mcp server connect failed", "server", name, "error", err)
		}
	}
}

// Connect establishes a client for one server, lists its tools and
// builds a BridgeTool per listing entry.
func (m *Manager) Connect(ctx context.Context, name string, cfg config.MCPServerConfig) error {
	if _, ok := m.clients[name]; ok {
		return fmt.Errorf("mcp server %q already connected", name)
	}

	c, err := m.dial(ctx, cfg)
	if err != nil {
		return err
	}

	initReq := mcpgo.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcpgo.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcpgo.Implementation{
		Name:    "joyride-ai",
		Version: "1.0",
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return fmt.Errorf("initialize %q: %w", name, err)
	}

	listing, err := c.ListTools(ctx, mcpgo.ListToolsRequest{})
	if err != nil {
		c.Close()
		return fmt.Errorf("list tools on %q: %w", name, err)
	}

	connected := &atomic.Bool{}
	connected.Store(true)
	m.clients[name] = &serverConn{client: c, connected: connected}

	for _, t := range listing.Tools {
		bt := NewBridgeTool(name, t, c, cfg.Prefix, cfg.TimeoutSeconds, connected)
		m.tools = append(m.tools, bt)
	}

	m.log.Info("mcp server connected", "server", name, "tools", len(listing.Tools))
	return nil
}

func (m *Manager) dial(ctx context.Context, cfg config.MCPServerConfig) (*mcpclient.Client, error) {
	switch {
	case cfg.Command != "":
		env := make([]string, 0, len(cfg.Env))
		for k, v := range cfg.Env {
			env = append(env, k+"="+v)
		}
		return mcpclient.NewStdioMCPClient(cfg.Command, env, cfg.Args...)
	case cfg.URL != "":
		c, err := mcpclient.NewStreamableHttpClient(cfg.URL)
		if err != nil {
			return nil, err
		}
		if err := c.Start(ctx); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("mcp server config needs a command or a url")
	}
}

// Tools returns all bridge tools across connected servers.
func (m *Manager) Tools() []*BridgeTool {
	return m.tools
}

// Close disconnects every server. Bridge tools report themselves
// disconnected from this point on.
func (m *Manager) Close() {
	for name, conn := range m.clients {
		conn.connected.Store(false)
		if err := conn.client.Close(); err != nil {
			m.log.Debug("mcp client close", "server", name, "error", err)
		}
	}
	m.clients = make(map[string]*serverConn)
	m.tools = nil
}
