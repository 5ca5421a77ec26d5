package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/PEZ/joyride-ai-chat/internal/config"
)

var (
	flagConfigPath string
	flagVerbose    bool
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "joyride-ai",
		Short: "Autonomous AI agent with tool use and human-in-the-loop queries",
		Long: `joyride-ai runs an LLM-driven agent toward a stated goal, executing
tools each turn until the goal is reached or the turn budget runs out.
When the agent needs a human decision it raises an interactive query
in the terminal.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file (default ~/.joyride-ai/config.json5)")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(runCmd())
	cmd.AddCommand(askCmd())
	cmd.AddCommand(modelsCmd())
	cmd.AddCommand(configCmd())
	cmd.AddCommand(onboardCmd())

	return cmd
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	// Logs go to stderr; stdout carries command output only.
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// resolveConfigPath picks the config file location: --config flag,
// then JOYRIDE_AI_CONFIG, then the per-user default.
func resolveConfigPath() string {
	if flagConfigPath != "" {
		return flagConfigPath
	}
	if p := os.Getenv("JOYRIDE_AI_CONFIG"); p != "" {
		return p
	}
	return config.DefaultPath()
}

// loadConfigOrExit loads the config file or prints a setup hint and exits.
func loadConfigOrExit() *config.Config {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run:  joyride-ai onboard")
		os.Exit(1)
	}
	return cfg
}
