package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hrygo/loconomy/ai/agent"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the concierge from the terminal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, p)
		if err != nil {
			return err
		}
		defer func() {
			a.Close(context.WithoutCancel(ctx))
			_ = a.store.Close()
		}()

		flags := cmd.Flags()
		actx := &agent.Context{}
		actx.UserID, _ = flags.GetString("user")
		actx.Location, _ = flags.GetString("location")
		actx.CurrentPage, _ = flags.GetString("page")

		return runChat(ctx, a.agent, actx, filepath.Join(p.Data, ".loconomy_history"))
	},
}

func init() {
	chatCmd.Flags().String("user", "cli-user", "user id the conversation runs as")
	chatCmd.Flags().String("location", "", "location used for service searches")
	chatCmd.Flags().String("page", "dashboard", "page reported to the agent")
}

func runChat(ctx context.Context, a *agent.Agent, actx *agent.Context, historyPath string) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(commandCompleter(a))

	if f, err := os.Open(historyPath); err == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(historyPath); err == nil {
			_, _ = line.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Println("Loconomy concierge. Type /help for commands, Ctrl-D to quit.")
	if suggestions := a.PredictIntent(ctx, actx.UserID, actx.CurrentPage); len(suggestions) > 0 {
		fmt.Println("Suggested: " + strings.Join(suggestions, "  "))
	}

	for {
		input, err := line.Prompt("> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fmt.Println()
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "failed to read input")
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		resp := a.ProcessInput(ctx, input, actx)
		fmt.Println(formatResponse(resp))
	}
}

func commandCompleter(a *agent.Agent) liner.Completer {
	return func(line string) []string {
		if !agent.IsCommand(line) || strings.Contains(line, " ") {
			return nil
		}
		var out []string
		for _, cmd := range a.Commands() {
			if name := agent.CommandPrefix + cmd.Name; strings.HasPrefix(name, line) {
				out = append(out, name+" ")
			}
		}
		return out
	}
}

// formatResponse renders a response for a terminal: the content, then one
// line per action.
func formatResponse(resp *agent.Response) string {
	var sb strings.Builder
	sb.WriteString(resp.Content)
	for _, act := range resp.Actions {
		fmt.Fprintf(&sb, "\n  [%s", act.Kind)
		if act.Target != "" {
			fmt.Fprintf(&sb, " -> %s", act.Target)
		}
		sb.WriteString("]")
	}
	return sb.String()
}
