// ABOUTME: Threads command to list conversation threads
// ABOUTME: Shows titles, turn counts, and last activity, most recent first
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewThreadsCmd creates the threads command
func NewThreadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threads",
		Short: "List conversation threads",
		Long:  `List all conversation threads with their titles and turn counts, most recent first.`,
		Args:  cobra.NoArgs,
		RunE:  runThreads,
	}

	cmd.AddCommand(newThreadsDeleteCmd())

	return cmd
}

func newThreadsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <thread>",
		Short: "Delete a thread and its history",
		Long:  `Delete a thread, its full turn history, and any uploaded document index.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runThreadsDelete,
	}
}

func runThreadsDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	threadKey := args[0]
	if err := a.engine.DeleteThread(threadKey); err != nil {
		return fmt.Errorf("deleting thread: %w", err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted thread %s\n", threadKey)
	}
	return nil
}

func runThreads(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	infos, err := a.engine.Threads()
	if err != nil {
		return fmt.Errorf("listing threads: %w", err)
	}

	if len(infos) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No threads yet. Start one with: chatkit chat")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "THREAD\tTITLE\tTURNS\tUPDATED")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			info.Key, truncate(info.Title, 40), info.TurnCount, formatTime(info.UpdatedAt))
	}
	return w.Flush()
}
