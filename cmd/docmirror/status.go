package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docmirror/docmirror/internal/config"
	"github.com/docmirror/docmirror/internal/report"
	"github.com/docmirror/docmirror/internal/storage"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what has been mirrored",
		Long: `Status reads the document index and reports how many pages have been
mirrored, their total size in words, and when the last fetch happened.

Examples:
  # Quick summary
  docmirror status

  # Full markdown catalog of mirrored documents
  docmirror status --markdown`,
		RunE: runStatusCmd,
	}

	cmd.Flags().BoolP("markdown", "m", false,
		"Output the full document catalog as markdown")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory holding the document index")

	return cmd
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, _ []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	asMarkdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	index, err := storage.OpenIndex(dbDir)
	if err != nil {
		return fmt.Errorf("failed to open document index: %w", err)
	}
	defer index.Close()

	ctx := cmd.Context()
	summary, err := index.Summarize(ctx)
	if err != nil {
		return err
	}

	if asMarkdown {
		records, err := index.List(ctx)
		if err != nil {
			return err
		}
		return report.NewMarkdownWriter(cmd.OutOrStdout()).WriteCatalog(summary, records)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Documents mirrored: %d\n", summary.Documents)
	fmt.Fprintf(out, "Total words:        %d\n", summary.TotalWords)
	if summary.LastFetched.IsZero() {
		fmt.Fprintln(out, "Last fetched:       never")
	} else {
		fmt.Fprintf(out, "Last fetched:       %s\n", summary.LastFetched.Format("2006-01-02 15:04:05 MST"))
	}
	return nil
}
