/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/allbin/balancelog/internal/tui/components"
	"github.com/allbin/balancelog/registry"
)

// balancesCmd represents the balances command
var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "List the balances available for recording",
	Long: `Probe every balance adapter for the balance behind it and list the ones
that are free to record from, labelled balances first.

Ports held by another recorder are skipped without being opened.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(v)
		if err != nil {
			return err
		}
		defer a.Close()

		reg, err := a.registry()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		balances, err := reg.Discover(cmd.Context())
		if errors.Is(err, registry.ErrNoDevices) {
			fmt.Fprintln(out, "  - No balances connected - ")
			return nil
		}
		if err != nil {
			return err
		}

		plain, _ := cmd.Flags().GetBool("plain")
		if plain {
			for i, b := range balances {
				fmt.Fprintf(out, "%d. %-16s (%s %s)\n", i+1, b.Label, b.Identity, b.Path)
			}
			return nil
		}

		fmt.Fprintln(out, "Balances available:")
		fmt.Fprintln(out, components.NewBalanceTable(balances).View())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(balancesCmd)

	balancesCmd.Flags().BoolP("plain", "p", false, "Plain text output, one balance per line")
}
