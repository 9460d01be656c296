package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mditgo/mditgo/internal/facade"
	"github.com/mditgo/mditgo/internal/index"
	"github.com/mditgo/mditgo/internal/ui"
)

func newIndexCmd() *cobra.Command {
	var (
		force bool
		note  string
	)

	cmd := &cobra.Command{
		Use:   "index [vault-path]",
		Short: "Index a vault's markdown notes",
		Long: `Scans a vault for markdown files, chunks and embeds them, resolves
wiki-style and markdown links between notes, and stores the result in
mditgo's database for search and backlink queries.

Use --note to synchronize a single file instead of re-scanning the whole
vault; a single-note run never prunes other notes' doc rows.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			root, err := absRoot(argOrEmpty(args, 0))
			if err != nil {
				return fmt.Errorf("resolving vault path: %w", err)
			}

			lock, err := facade.AcquireVaultLock(root)
			if err != nil {
				return err
			}
			defer lock.Release()

			renderer := ui.NewRenderer(ui.Config{Output: cmd.OutOrStdout()})
			start := time.Now()

			if note != "" {
				summary, err := app.facade.IndexNote(ctx, root, note)
				if err != nil {
					return err
				}
				renderer.Complete(summaryToStats(summary, time.Since(start)))
				return nil
			}

			summary, err := app.facade.IndexWorkspace(ctx, root, force)
			if err != nil {
				return err
			}
			renderer.Complete(summaryToStats(summary, time.Since(start)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Rebuild every doc's chunks and embeddings regardless of prior state")
	cmd.Flags().StringVar(&note, "note", "", "Vault-relative path to a single note to synchronize")

	return cmd
}

func argOrEmpty(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func summaryToStats(summary *index.Summary, d time.Duration) ui.CompletionStats {
	stats := ui.CompletionStats{
		Docs:     summary.DocsInserted,
		Segments: summary.SegmentsCreated,
		Errors:   len(summary.SkippedFiles),
		Duration: d,
	}
	return stats
}
