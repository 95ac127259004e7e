// ABOUTME: History command to display a thread's conversation
// ABOUTME: Shows user messages and answers, or the full tool trace with --full
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akshith/chatkit/internal/models"
)

var historyFull bool

// NewHistoryCmd creates the history command
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <thread>",
		Short: "Show a thread's conversation history",
		Long: `Show a thread's conversation history.

By default only user messages and the assistant's answers are shown.
Use --full to include the tool calls and tool results in between.`,
		Args: cobra.ExactArgs(1),
		RunE: runHistory,
	}

	cmd.Flags().BoolVar(&historyFull, "full", false, "Include tool calls and results")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	threadKey := args[0]
	var turns []models.Turn
	if historyFull {
		turns, err = a.engine.GetFullHistory(threadKey)
	} else {
		turns, err = a.engine.GetHistory(threadKey)
	}
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	if len(turns) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No history for thread %s\n", threadKey)
		return nil
	}

	out := cmd.OutOrStdout()
	for _, turn := range turns {
		switch turn.Role {
		case models.RoleUser:
			fmt.Fprintf(out, "[%s] you: %s\n", formatTime(turn.Timestamp), turn.Content.PlainText())
		case models.RoleAssistant:
			if len(turn.ToolCalls) > 0 {
				for _, call := range turn.ToolCalls {
					fmt.Fprintf(out, "[%s] assistant -> %s(%s)\n", formatTime(turn.Timestamp), call.Name, string(call.Arguments))
				}
				continue
			}
			fmt.Fprintf(out, "[%s] assistant: %s\n", formatTime(turn.Timestamp), turn.Content.PlainText())
		case models.RoleTool:
			fmt.Fprintf(out, "[%s] %s <- %s\n", formatTime(turn.Timestamp), turn.ToolName, truncate(turn.Content.PlainText(), 120))
		}
	}
	return nil
}
