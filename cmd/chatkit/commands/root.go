// ABOUTME: Root CLI command with global flags and subcommand wiring
// ABOUTME: Entry point for all chatkit subcommands
package commands

import (
	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
)

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chatkit",
		Short: "Multi-thread conversational assistant with tools",
		Long: `chatkit is a conversational assistant CLI.

Each conversation lives in its own thread with durable history.
The assistant can call tools (calculator, stock quotes, weather,
web search) and answer questions about documents you upload.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewChatCmd())
	cmd.AddCommand(NewThreadsCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewUploadCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
