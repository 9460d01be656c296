package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEmbeddingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embedding",
		Short: "View or change a vault's embedding configuration",
	}

	cmd.AddCommand(newEmbeddingGetCmd())
	cmd.AddCommand(newEmbeddingSetCmd())

	return cmd
}

func newEmbeddingGetCmd() *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print a vault's configured embedding provider and model",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolvedRoot, err := absRoot(root)
			if err != nil {
				return err
			}
			provider, model, ok, err := app.facade.GetEmbeddingConfig(resolvedRoot)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no embedding configured")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s / %s\n", provider, model)
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "vault", "", "Vault path (default: current directory)")
	return cmd
}

func newEmbeddingSetCmd() *cobra.Command {
	var root, provider, model string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set (or, with an empty --model, clear) a vault's embedding configuration",
		Long: `Changing the configured model does not rebuild already-stored vectors;
run 'mditgo index --force' afterward to rebuild with the new model.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolvedRoot, err := absRoot(root)
			if err != nil {
				return err
			}
			return app.facade.SetEmbeddingConfig(resolvedRoot, provider, model)
		},
	}
	cmd.Flags().StringVar(&root, "vault", "", "Vault path (default: current directory)")
	cmd.Flags().StringVar(&provider, "provider", "", "Embedding provider name")
	cmd.Flags().StringVar(&model, "model", "", "Embedding model name; empty clears the configuration")
	return cmd
}
