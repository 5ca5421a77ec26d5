package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/PEZ/joyride-ai-chat/internal/config"
)

func onboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "onboard",
		Short: "Interactive setup wizard — configure provider, model, defaults",
		Run: func(cmd *cobra.Command, args []string) {
			runOnboard()
		},
	}
}

type providerInfo struct {
	name      string
	envKey    string
	apiBase   string
	modelHint string
}

var knownProviders = []providerInfo{
	{"openai", "OPENAI_API_KEY", "", "gpt-4o"},
	{"openrouter", "OPENROUTER_API_KEY", "https://openrouter.ai/api/v1", "anthropic/claude-sonnet-4-5-20250929"},
	{"deepseek", "DEEPSEEK_API_KEY", "https://api.deepseek.com/v1", "deepseek-chat"},
	{"groq", "GROQ_API_KEY", "https://api.groq.com/openai/v1", "llama-3.3-70b-versatile"},
	{"custom", "", "", ""},
}

func runOnboard() {
	fmt.Println("joyride-ai setup")
	fmt.Println()

	cfgPath := resolveConfigPath()

	cfg := config.Default()
	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Printf("Found existing config at %s\n", cfgPath)
		useExisting, err := askYesNo("Use existing config as base?", true)
		if err != nil {
			fmt.Println("Cancelled.")
			return
		}
		if useExisting {
			if loaded, err := config.Load(cfgPath); err == nil {
				cfg = loaded
			} else {
				fmt.Printf("Warning: could not load existing config: %v\n", err)
			}
		}
	}

	labels := make([]string, len(knownProviders))
	for i, p := range knownProviders {
		labels[i] = p.name
	}
	idx, err := askChoice("Provider", labels)
	if err != nil {
		fmt.Println("Cancelled.")
		return
	}
	info := knownProviders[idx]

	name := info.name
	apiBase := info.apiBase
	if name == "custom" {
		name, err = askText("Provider id", "lowercase [a-z0-9_-]", "local")
		if err != nil {
			fmt.Println("Cancelled.")
			return
		}
		name = config.NormalizeProviderID(name)
		apiBase, err = askText("API base URL", "OpenAI-compatible endpoint", "http://localhost:11434/v1")
		if err != nil {
			fmt.Println("Cancelled.")
			return
		}
	}

	apiKey := os.Getenv(info.envKey)
	if apiKey != "" {
		fmt.Printf("Using API key from %s\n", info.envKey)
	} else {
		apiKey, err = askSecret("API key", "stored in the config file (0600)")
		if err != nil {
			fmt.Println("Cancelled.")
			return
		}
	}

	model, err := askText("Default model", "", info.modelHint)
	if err != nil {
		fmt.Println("Cancelled.")
		return
	}

	turnsStr, err := askText("Max turns per run", "", strconv.Itoa(cfg.Agent.MaxTurns))
	if err != nil {
		fmt.Println("Cancelled.")
		return
	}
	if n, convErr := strconv.Atoi(turnsStr); convErr == nil && n > 0 {
		cfg.Agent.MaxTurns = n
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]config.ProviderConfig)
	}
	pc := cfg.Providers[name]
	pc.APIKey = apiKey
	pc.APIBase = apiBase
	if model != "" && !containsStr(pc.Models, model) {
		pc.Models = append(pc.Models, model)
	}
	cfg.Providers[name] = pc
	cfg.Agent.Model = model

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config invalid: %v\n", err)
		os.Exit(1)
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Save failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nSaved %s\n", cfgPath)
	fmt.Println(`Try:  joyride-ai run "What time is it in Oslo?"`)
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
