package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLinksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "Inspect a vault's link graph",
	}

	cmd.AddCommand(newLinksResolveCmd())
	cmd.AddCommand(newLinksBacklinksCmd())
	cmd.AddCommand(newLinksGraphCmd())

	return cmd
}

func newLinksResolveCmd() *cobra.Command {
	var root, current string
	cmd := &cobra.Command{
		Use:   "resolve <raw-target>",
		Short: "Resolve a raw [[wiki link]] target against a vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolvedRoot, err := absRoot(root)
			if err != nil {
				return err
			}
			var currentPtr *string
			if current != "" {
				currentPtr = &current
			}
			target, err := app.facade.ResolveWikiLinkTarget(resolvedRoot, args[0], currentPtr)
			if err != nil {
				return err
			}
			if target.Unresolved {
				fmt.Fprintf(cmd.OutOrStdout(), "unresolved: %s\n", target.CanonicalTarget)
				return nil
			}
			resolved := ""
			if target.ResolvedRelPath != nil {
				resolved = *target.ResolvedRelPath
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (matches=%d, disambiguated=%v)\n", resolved, target.MatchCount, target.Disambiguated)
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "vault", "", "Vault path (default: current directory)")
	cmd.Flags().StringVar(&current, "from", "", "Vault-relative path of the note containing the link, for tie-breaking")
	return cmd
}

func newLinksBacklinksCmd() *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "backlinks <note-path>",
		Short: "List notes that link to a given note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolvedRoot, err := absRoot(root)
			if err != nil {
				return err
			}
			backlinks, err := app.facade.GetBacklinks(resolvedRoot, args[0])
			if err != nil {
				return err
			}
			for _, b := range backlinks {
				fmt.Fprintln(cmd.OutOrStdout(), b.RelPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "vault", "", "Vault path (default: current directory)")
	return cmd
}

func newLinksGraphCmd() *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print a vault's full link graph as node/edge counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolvedRoot, err := absRoot(root)
			if err != nil {
				return err
			}
			view, err := app.facade.GetGraphViewData(resolvedRoot)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d nodes, %d edges\n", len(view.Nodes), len(view.Edges))
			for _, e := range view.Edges {
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", e.Source, e.Target)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "vault", "", "Vault path (default: current directory)")
	return cmd
}
