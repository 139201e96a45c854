package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var purgeYes bool

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete the owner's entire collection",
	Long: `Removes every chunk stored for the owner. The operation is
idempotent: purging an owner that has no collection succeeds. Other
owners' collections are untouched.`,
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().BoolVarP(&purgeYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, _ []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	if !purgeYes {
		cmd.Printf("Delete the entire collection for owner %q? [y/N]: ", ownerID)
		var answer string
		_, _ = fmt.Fscanln(cmd.InOrStdin(), &answer) //nolint:errcheck // Empty input means no
		if answer != "y" && answer != "Y" && answer != "yes" {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := retrievalService.Purge(context.Background(), ownerID); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	cmd.Printf("Collection for owner %q purged.\n", ownerID)
	return nil
}
