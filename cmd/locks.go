/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// locksCmd represents the locks command
var locksCmd = &cobra.Command{
	Use:   "locks",
	Short: "List balances held by a running recorder",
	Long: `List the device paths in the lock file.

An entry stays behind if a recorder was killed without a chance to clean up;
remove it with "balancelog unlock <port>" once no recorder is using the port.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(v)
		if err != nil {
			return err
		}
		defer a.Close()

		locks := a.locks()
		entries, err := locks.Entries()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintf(out, "No locked devices (%s)\n", locks.Path())
			return nil
		}
		fmt.Fprintf(out, "Locked devices (%s):\n", locks.Path())
		for _, e := range entries {
			fmt.Fprintf(out, "  %s\n", e)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(locksCmd)
}
