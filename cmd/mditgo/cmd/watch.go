package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mditgo/mditgo/internal/facade"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [vault-path]",
		Short: "Watch a vault and keep its index synchronized as files change",
		Long: `Starts a filesystem watch over the vault: single-file changes are
synchronized with index_note, and rescans (overflow, source errors, or
events outside the vault) trigger a full index_workspace, per the watcher's
debounced, rename-pairing event model.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := absRoot(argOrEmpty(args, 0))
			if err != nil {
				return fmt.Errorf("resolving vault path: %w", err)
			}

			lock, err := facade.AcquireVaultLock(root)
			if err != nil {
				return err
			}
			defer lock.Release()

			if _, err := app.facade.IndexWorkspace(cmd.Context(), root, false); err != nil {
				return fmt.Errorf("initial index: %w", err)
			}

			handle, err := app.facade.WatchDriver(root)
			if err != nil {
				return fmt.Errorf("starting watch: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "watching %s (ctrl-c to stop)\n", root)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			<-sigCh

			return handle.Stop()
		},
	}
	return cmd
}
