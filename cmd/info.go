/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/allbin/balancelog/balance"
	"github.com/allbin/balancelog/registry"
	"github.com/allbin/balancelog/serial"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <port>",
	Short: "Display detailed information about a serial port",
	Long: `Display detailed information about a serial port including USB metadata,
whether it is a balance adapter and whether a recorder holds it.

Examples:
  balancelog info /dev/ttyUSB0
  balancelog info /dev/ttyUSB0 --identify

With --identify the balance is asked for its serial number. This stops any
stream the balance is printing, so it is refused while the port is locked.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		portPath := args[0]
		identify, _ := cmd.Flags().GetBool("identify")

		a, err := loadApp(v)
		if err != nil {
			return err
		}
		defer a.Close()

		info, err := serial.GetPortInfo(portPath)
		if err != nil {
			return fmt.Errorf("getting port info: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Port Information: %s\n\n", info.Path)
		fmt.Fprintf(out, "  Name:        %s\n", info.Name)
		fmt.Fprintf(out, "  Description: %s\n", info.Description)

		// USB Device Information
		if info.VendorID != "" || info.ProductID != "" {
			fmt.Fprintln(out, "\nUSB Device Information:")
			printField(out, "Vendor ID", info.VendorID)
			printField(out, "Product ID", info.ProductID)
			printField(out, "Serial", info.SerialNumber)
			printField(out, "Interface", info.InterfaceNumber)
			printField(out, "Bus", info.BusNumber)
			printField(out, "Device", info.DeviceNumber)
			printField(out, "Manufacturer", info.Manufacturer)
			printField(out, "Product", info.Product)
		}

		isAdapter := false
		for _, id := range a.cfg.Adapters {
			if info.USBID() == id {
				isAdapter = true
			}
		}
		locked, err := a.locks().IsLocked(info.Path)
		if err != nil {
			return err
		}

		fmt.Fprintln(out, "\nBalance:")
		printField(out, "Adapter", yesNo(isAdapter))
		printField(out, "Recording", yesNo(locked))

		if !identify {
			return nil
		}
		if locked {
			return fmt.Errorf("%s is being recorded from, not probing it", info.Path)
		}

		reg, err := a.registry()
		if err != nil {
			return err
		}
		d, err := reg.Identify(cmd.Context(), registry.Descriptor{
			Path:      info.Path,
			VendorID:  info.VendorID,
			ProductID: info.ProductID,
		})
		if err != nil {
			return err
		}
		if !d.Identified {
			printField(out, "Identity", balance.ErrNoIdentity.Error())
			return nil
		}
		printField(out, "Identity", d.Identity)
		printField(out, "Label", d.Label)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().Bool("identify", false, "Ask the balance for its serial number")
}

func printField(out io.Writer, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(out, "  %-13s %s\n", name+":", value)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
