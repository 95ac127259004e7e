// ABOUTME: Upload command to attach a document to a thread
// ABOUTME: Ingests plain-text files into the thread's retrieval index
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// NewUploadCmd creates the upload command
func NewUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <thread> <file>",
		Short: "Upload a document to a thread",
		Long: `Upload a plain-text document to a thread.

After uploading, the assistant can answer questions about the document
in that thread. Uploading again replaces the previous document.`,
		Args: cobra.ExactArgs(2),
		RunE: runUpload,
		Example: `  chatkit upload 4f3a... report.txt
  chatkit chat --thread 4f3a... "Summarize the report"`,
	}

	return cmd
}

func runUpload(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	threadKey, path := args[0], args[1]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	stats, err := a.engine.UploadDocument(cmd.Context(), threadKey, data, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("ingesting document: %w", err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %s: %d chunks\n", filepath.Base(path), stats.Chunks)
	}
	return nil
}
