package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/PEZ/joyride-ai-chat/internal/config"
)

func modelsCmd() *cobra.Command {
	var jsonOutput bool
	list := func(cmd *cobra.Command, args []string) {
		cfg := loadConfigOrExit()
		entries := buildModelList(cfg)

		if jsonOutput {
			data, _ := json.MarshalIndent(entries, "", "  ")
			fmt.Println(string(data))
			return
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "PROVIDER\tMODEL\tSTATUS\n")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Provider, e.Model, e.Status)
		}
		tw.Flush()
	}

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List configured models and providers",
		Run:   list,
	}
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured models and providers",
		Run:   list,
	})
	return cmd
}

type modelEntry struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Status   string `json:"status"`
}

func buildModelList(cfg *config.Config) []modelEntry {
	var entries []modelEntry

	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		pc := cfg.Providers[name]
		for _, m := range pc.Models {
			status := "available"
			if m == cfg.Agent.Model {
				status = "default"
			}
			if pc.APIKey == "" {
				status = "no-key"
			}
			entries = append(entries, modelEntry{Provider: name, Model: m, Status: status})
		}
	}
	return entries
}
