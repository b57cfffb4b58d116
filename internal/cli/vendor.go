package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var vendorCmd = &cobra.Command{
	Use:   "vendor",
	Short: "Manage vendors",
	Long: `Add, remove, rename and list vendors.

Removing a vendor also removes every price it quoted.

Examples:
  pricecmp vendor add "Acme Supplies"
  pricecmp vendor ls
  pricecmp vendor rename 93b5e2d4 "Acme"
  pricecmp vendor rm 93b5e2d4`,
}

var vendorAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a vendor",
	Args:  cobra.ExactArgs(1),
	Run:   runVendorAdd,
}

var vendorRemoveCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"remove"},
	Short:   "Remove a vendor and its prices",
	Args:    cobra.ExactArgs(1),
	Run:     runVendorRemove,
}

var vendorListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List vendors",
	Args:    cobra.NoArgs,
	Run:     runVendorList,
}

var vendorRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a vendor",
	Args:  cobra.ExactArgs(2),
	Run:   runVendorRename,
}

func init() {
	vendorCmd.AddCommand(vendorAddCmd, vendorRemoveCmd, vendorListCmd, vendorRenameCmd)
}

func runVendorAdd(_ *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	v, err := c.Catalog.AddVendor(context.Background(), args[0])
	if err != nil {
		c.exitError("%v", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("Added vendor '%s'", v.Name)
	fmt.Printf(" (%s)\n", v.ShortID())
}

func runVendorRemove(_ *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	id, err := c.Catalog.ResolveVendorID(args[0])
	if err != nil {
		c.exitError("%v", err)
	}
	v, err := c.Catalog.Vendor(id)
	if err != nil {
		c.exitError("%v", err)
	}
	if err := c.Catalog.RemoveVendor(context.Background(), id); err != nil {
		c.exitError("%v", err)
	}

	fmt.Printf("Removed vendor '%s' (%s)\n", v.Name, v.ShortID())
}

func runVendorList(_ *cobra.Command, _ []string) {
	c := initContext()
	defer c.Close()

	renderVendors(os.Stdout, c.Catalog.Vendors())
}

func runVendorRename(_ *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	id, err := c.Catalog.ResolveVendorID(args[0])
	if err != nil {
		c.exitError("%v", err)
	}
	v, err := c.Catalog.RenameVendor(context.Background(), id, args[1])
	if err != nil {
		c.exitError("%v", err)
	}

	fmt.Printf("Renamed vendor %s to '%s'\n", v.ShortID(), v.Name)
}
