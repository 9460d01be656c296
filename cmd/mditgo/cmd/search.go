package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var (
		root  string
		limit int
		asRaw bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search a vault's notes with hybrid BM25/vector ranking",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolvedRoot, err := absRoot(root)
			if err != nil {
				return fmt.Errorf("resolving vault path: %w", err)
			}

			query := strings.Join(args, " ")
			entries, err := app.facade.SearchNotesForQuery(cmd.Context(), resolvedRoot, query, limit)
			if err != nil {
				return err
			}

			if asRaw {
				data, err := json.MarshalIndent(entries, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%.3f  %s\n", e.Similarity, e.Path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "vault", "", "Vault path (default: current directory)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results (default: configured default limit)")
	cmd.Flags().BoolVar(&asRaw, "json", false, "Print results as JSON")

	return cmd
}
