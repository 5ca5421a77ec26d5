package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PEZ/joyride-ai-chat/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and manage configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Display current configuration (secrets redacted)",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfigOrExit()
			data, _ := json.MarshalIndent(redacted(cfg), "", "  ")
			fmt.Println(string(data))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check that the config file parses and passes validation",
		Run: func(cmd *cobra.Command, args []string) {
			path := resolveConfigPath()
			if _, err := config.Load(path); err != nil {
				fmt.Fprintf(os.Stderr, "Invalid config: %s\n", err)
				os.Exit(1)
			}
			fmt.Printf("Config at %s is valid.\n", path)
		},
	})

	return cmd
}

// redacted returns a display copy of cfg with credentials masked.
// Config copies by value, but the maps inside it are shared, so
// masked entries go into fresh maps.
func redacted(cfg *config.Config) config.Config {
	out := *cfg

	out.Providers = make(map[string]config.ProviderConfig, len(cfg.Providers))
	for id, p := range cfg.Providers {
		p.APIKey = maskSecret(p.APIKey)
		out.Providers[id] = p
	}

	if len(cfg.MCPServers) > 0 {
		out.MCPServers = make(map[string]config.MCPServerConfig, len(cfg.MCPServers))
		for name, srv := range cfg.MCPServers {
			if len(srv.Env) > 0 {
				env := make(map[string]string, len(srv.Env))
				for k, v := range srv.Env {
					if isSecretEnvKey(k) {
						v = maskSecret(v)
					}
					env[k] = v
				}
				srv.Env = env
			}
			out.MCPServers[name] = srv
		}
	}

	if len(cfg.Tracing.Headers) > 0 {
		headers := make(map[string]string, len(cfg.Tracing.Headers))
		for k, v := range cfg.Tracing.Headers {
			headers[k] = maskSecret(v)
		}
		out.Tracing.Headers = headers
	}

	return out
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

func isSecretEnvKey(k string) bool {
	k = strings.ToUpper(k)
	return strings.Contains(k, "KEY") || strings.Contains(k, "TOKEN") || strings.Contains(k, "SECRET")
}
