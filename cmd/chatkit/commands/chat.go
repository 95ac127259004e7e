// ABOUTME: Chat command for one-shot and interactive conversations
// ABOUTME: Streams answers by default and keeps per-thread history
package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/akshith/chatkit/internal/engine"
	"github.com/akshith/chatkit/internal/models"
)

var (
	chatThread   string
	chatNoStream bool
)

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with the assistant",
		Long: `Chat with the assistant.

With a message argument, sends one message and prints the answer.
Without arguments, starts an interactive session. Use --thread to
continue an existing conversation; otherwise a new thread is created.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runChat,
		Example: `  # One-shot question in a new thread
  chatkit chat "What is the weather in Tokyo?"

  # Continue an existing thread
  chatkit chat --thread 4f3a... "And tomorrow?"

  # Interactive session
  chatkit chat`,
	}

	cmd.Flags().StringVar(&chatThread, "thread", "", "Thread to continue (default: new thread)")
	cmd.Flags().BoolVar(&chatNoStream, "no-stream", false, "Wait for the full answer instead of streaming")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	threadKey := chatThread
	if threadKey == "" {
		threadKey = a.engine.CreateThread()
		if !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "Started thread %s\n", threadKey)
		}
	}

	if len(args) > 0 {
		return sendMessage(cmd, a, threadKey, args[0])
	}

	return interactiveChat(cmd, a, threadKey)
}

// sendMessage submits one message and prints the answer.
func sendMessage(cmd *cobra.Command, a *app, threadKey, message string) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	var final *models.Turn
	var err error
	if chatNoStream {
		final, err = a.engine.SubmitUserMessage(ctx, threadKey, message)
		if final != nil {
			fmt.Fprintln(out, final.Content.PlainText())
		}
	} else {
		final, err = a.engine.StreamUserMessage(ctx, threadKey, message, func(fragment string) error {
			_, werr := fmt.Fprint(out, fragment)
			return werr
		})
		if errors.Is(err, engine.ErrToolLoopExceeded) && final != nil {
			// The degraded answer is never streamed, print it whole.
			fmt.Fprint(out, final.Content.PlainText())
		}
		fmt.Fprintln(out)
	}

	if errors.Is(err, engine.ErrToolLoopExceeded) {
		return nil
	}
	return err
}

// interactiveChat runs a read-eval loop until EOF or "exit".
func interactiveChat(cmd *cobra.Command, a *app, threadKey string) error {
	out := cmd.OutOrStdout()
	if !quiet {
		fmt.Fprintln(out, "Type a message and press enter. \"exit\" or ctrl-d to quit.")
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		if err := sendMessage(cmd, a, threadKey, line); err != nil {
			if errors.Is(err, engine.ErrEmptyMessage) {
				continue
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	}

	return scanner.Err()
}
