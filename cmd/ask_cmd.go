package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/PEZ/joyride-ai-chat/internal/ask"
)

func askCmd() *cobra.Command {
	var (
		options    []string
		contextStr string
		timeoutSec int
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Put a single question to the human in the terminal",
		Long: `Raise one interactive query, the same widget the agent uses for its
ask_human tool. With --option flags the human picks from a list (an
"Other…" entry opens free-text input); without options it goes straight
to free-text.

Examples:
  joyride-ai ask "Which environment?" --option staging --option production
  joyride-ai ask "Describe the bug" --timeout 120`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runAsk(args[0], contextStr, options, timeoutSec)
		},
	}

	cmd.Flags().StringArrayVarP(&options, "option", "o", nil, "choice to offer (repeatable)")
	cmd.Flags().StringVar(&contextStr, "context", "", "extra context shown with the question")
	cmd.Flags().IntVarP(&timeoutSec, "timeout", "t", 0, "seconds before the query times out")

	return cmd
}

func runAsk(question, contextStr string, options []string, timeoutSec int) {
	cfg := loadConfigOrExit()

	if timeoutSec <= 0 {
		timeoutSec = cfg.Ask.TimeoutSeconds
	}

	items := make([]ask.Item, len(options))
	for i, o := range options {
		items[i] = ask.Item{Label: o}
	}

	svc := ask.NewService(ask.NewTerminalUI())
	resp, err := svc.Ask(context.Background(), ask.Query{
		Question: question,
		Context:  contextStr,
		Items:    items,
		Timeout:  time.Duration(timeoutSec) * time.Second,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(resp.Answer())
	if resp.Status != ask.StatusAnswered {
		os.Exit(1)
	}
}
