package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/PEZ/joyride-ai-chat/internal/agent"
	"github.com/PEZ/joyride-ai-chat/internal/ask"
	"github.com/PEZ/joyride-ai-chat/internal/config"
	"github.com/PEZ/joyride-ai-chat/internal/mcp"
	"github.com/PEZ/joyride-ai-chat/internal/providers"
	"github.com/PEZ/joyride-ai-chat/internal/tools"
	"github.com/PEZ/joyride-ai-chat/internal/tracing"
	"github.com/PEZ/joyride-ai-chat/internal/tracing/otelexport"
)

func runCmd() *cobra.Command {
	var (
		modelID     string
		maxTurns    int
		toolNames   []string
		jsonOutput  bool
		traceOutput bool
	)

	cmd := &cobra.Command{
		Use:   "run <goal>",
		Short: "Run the agent toward a goal",
		Long: `Run the agent loop: the model plans, calls tools, and keeps going
until it reports the goal done or the turn budget is spent.

Examples:
  joyride-ai run "Summarize the latest Go release notes"
  joyride-ai run --model gpt-4o --max-turns 5 "What time is it in Oslo?"
  joyride-ai run --tools current_time,ask_human "Pick a meeting slot"`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runAgent(args[0], modelID, maxTurns, toolNames, jsonOutput, traceOutput)
		},
	}

	cmd.Flags().StringVarP(&modelID, "model", "m", "", "model id (default from config)")
	cmd.Flags().IntVar(&maxTurns, "max-turns", 0, "turn budget (default from config)")
	cmd.Flags().StringSliceVar(&toolNames, "tools", nil, "tools to expose (default: all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print full run result as JSON")
	cmd.Flags().BoolVar(&traceOutput, "trace", false, "print the run trace to stderr when done")

	return cmd
}

func runAgent(goal, modelID string, maxTurns int, toolNames []string, jsonOutput, traceOutput bool) {
	cfg := loadConfigOrExit()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	models := buildProviderRegistry(cfg)

	askSvc := ask.NewService(ask.NewTerminalUI())
	registry, askTool, limiter := buildToolRegistry(cfg, askSvc)

	// Long runs accumulate stale rate-limit windows; sweep them.
	go func() {
		tick := time.NewTicker(10 * time.Minute)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				limiter.Cleanup()
			}
		}
	}()

	// Long runs keep going for a while; picking up a tuned ask timeout
	// from disk spares a restart.
	if watcher, err := config.NewWatcher(resolveConfigPath()); err == nil {
		watcher.OnChange(func(updated *config.Config) {
			askTool.SetDefaultTimeout(time.Duration(updated.Ask.TimeoutSeconds) * time.Second)
		})
		if err := watcher.Start(); err != nil {
			slog.Debug("config watch disabled", "error", err)
		} else {
			defer watcher.Stop()
		}
	}

	mgr := mcp.NewManager(slog.Default())
	mgr.ConnectAll(ctx, cfg.MCPServers)
	defer mgr.Close()
	for _, bt := range mgr.Tools() {
		registry.Register(bt)
	}

	if len(toolNames) == 0 {
		toolNames = cfg.Agent.Tools
	}
	// --tools narrows the registry itself, not just the definitions
	// advertised to the model, so an unlisted tool cannot be invoked by
	// name either.
	if len(toolNames) > 0 {
		allowed := make(map[string]bool, len(toolNames))
		for _, name := range toolNames {
			allowed[name] = true
		}
		for _, name := range registry.List() {
			if !allowed[name] {
				registry.Unregister(name)
			}
		}
	}
	slog.Debug("tools ready", "count", registry.Count(), "tools", registry.List())

	collector := tracing.NewCollector()
	if cfg.Tracing.OTLPEndpoint != "" {
		exp, err := otelexport.New(ctx, otelexport.Config{
			Endpoint: cfg.Tracing.OTLPEndpoint,
			Protocol: cfg.Tracing.Protocol,
			Insecure: cfg.Tracing.Insecure,
			Headers:  cfg.Tracing.Headers,
		})
		if err != nil {
			slog.Warn("otlp exporter disabled", "error", err)
		} else {
			collector.SetExporter(exp)
			defer exp.Shutdown(context.Background())
		}
	}
	collector.Start()
	defer collector.Stop()

	loop := agent.NewLoop(models, registry)
	loop.SetTracer(collector)

	if maxTurns <= 0 {
		maxTurns = cfg.Agent.MaxTurns
	}

	result, err := loop.Run(ctx, agent.RunRequest{
		Goal:      goal,
		ModelID:   firstNonEmptyStr(modelID, cfg.Agent.Model),
		ToolNames: toolNames,
		MaxTurns:  maxTurns,
		OnProgress: func(note string) {
			fmt.Fprintln(os.Stderr, note)
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Run failed: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
	} else {
		fmt.Println(result.FinalResponse)
		fmt.Fprintf(os.Stderr, "[%s]\n", result.Reason)
	}

	if traceOutput {
		collector.Stop() // flush; the deferred Stop becomes a no-op
		printRunTrace(collector, result.RunID)
	}

	if result.Reason == agent.ReasonModelNotFound {
		if ids := models.List(); len(ids) > 0 {
			fmt.Fprintf(os.Stderr, "Known models: %s\n", strings.Join(ids, ", "))
		}
		os.Exit(1)
	}
}

// printRunTrace dumps the collected trace for one run to stderr.
func printRunTrace(collector *tracing.Collector, runID uuid.UUID) {
	rt, ok := collector.Run(runID)
	if !ok {
		return
	}
	fmt.Fprintf(os.Stderr, "trace %s: %s, %d turns, %s\n",
		rt.ID, rt.Reason, rt.Turns, rt.EndedAt.Sub(rt.StartedAt).Round(time.Millisecond))
	for _, s := range collector.Spans(runID) {
		status := ""
		if s.IsError {
			status = "  [error]"
		}
		fmt.Fprintf(os.Stderr, "  %-5s %-16s %s%s\n",
			s.Kind, s.Name, s.EndedAt.Sub(s.StartedAt).Round(time.Millisecond), status)
	}
}

// buildProviderRegistry registers one OpenAI-compatible provider per
// config entry, with its served models.
func buildProviderRegistry(cfg *config.Config) *providers.Registry {
	models := providers.NewRegistry()
	for name, pc := range cfg.Providers {
		p := providers.NewOpenAIProvider(name, pc.APIKey, pc.APIBase)
		if pc.RequestsPerMinute > 0 {
			p.SetRateLimit(pc.RequestsPerMinute)
		}
		models.Register(p, pc.Models...)
	}
	return models
}

func buildToolRegistry(cfg *config.Config, askSvc *ask.Service) (*tools.Registry, *tools.AskHumanTool, *tools.RateLimiter) {
	registry := tools.NewRegistry()
	limiter := tools.NewRateLimiter(60, time.Minute)
	registry.SetRateLimiter(limiter)

	askTool := tools.NewAskHumanTool(askSvc, time.Duration(cfg.Ask.TimeoutSeconds)*time.Second)
	registry.Register(tools.NewCurrentTimeTool())
	registry.Register(tools.NewWebFetchTool())
	registry.Register(askTool)

	return registry, askTool, limiter
}

func firstNonEmptyStr(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
