package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Manage known vaults",
	}

	cmd.AddCommand(newWorkspaceListCmd())
	cmd.AddCommand(newWorkspaceTouchCmd())
	cmd.AddCommand(newWorkspaceRemoveCmd())

	return cmd
}

func newWorkspaceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every known vault, most recently opened first",
		RunE: func(cmd *cobra.Command, args []string) error {
			vaults, err := app.facade.ListWorkspaces()
			if err != nil {
				return err
			}
			for _, v := range vaults {
				model := "-"
				if v.EmbeddingModel.Valid {
					model = v.EmbeddingModel.String
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", v.WorkspaceRoot, model)
			}
			return nil
		},
	}
}

func newWorkspaceTouchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "touch <vault-path>",
		Short: "Register a vault or update its last-opened timestamp",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := absRoot(args[0])
			if err != nil {
				return err
			}
			return app.facade.TouchWorkspace(root)
		},
	}
}

func newWorkspaceRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <vault-path>",
		Short: "Forget a vault's index bookkeeping (leaves its files untouched)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := absRoot(args[0])
			if err != nil {
				return err
			}
			return app.facade.RemoveWorkspace(root)
		},
	}
}
