/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errNothingToUnlock = errors.New("no device given (use --all to clear every entry)")

// unlockCmd represents the unlock command
var unlockCmd = &cobra.Command{
	Use:   "unlock <port>...",
	Short: "Remove stale entries from the lock file",
	Long: `Remove devices from the lock file after a recorder crashed or was killed.

Only do this when no recorder is running for the port; a running recorder
does not notice its entry disappearing.

Examples:
  balancelog unlock /dev/ttyUSB0
  balancelog unlock --all`,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")

		a, err := loadApp(v)
		if err != nil {
			return err
		}
		defer a.Close()

		locks := a.locks()
		if all {
			entries, err := locks.Entries()
			if err != nil {
				return err
			}
			args = entries
		}
		if len(args) == 0 && !all {
			return errNothingToUnlock
		}

		out := cmd.OutOrStdout()
		for _, device := range args {
			if err := locks.Release(device); err != nil {
				return fmt.Errorf("unlocking %s: %w", device, err)
			}
			a.log.WithField("device", device).Info("lock entry removed")
			fmt.Fprintf(out, "Unlocked %s\n", device)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unlockCmd)

	unlockCmd.Flags().Bool("all", false, "Remove every entry")
}
