package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage items",
	Long: `Add, remove, rename and list items.

Examples:
  pricecmp item add "Widget"
  pricecmp item ls
  pricecmp item rename 0192f3b7 "Widget XL"
  pricecmp item rm 0192f3b7`,
}

var itemAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add an item",
	Args:  cobra.ExactArgs(1),
	Run:   runItemAdd,
}

var itemRemoveCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"remove"},
	Short:   "Remove an item",
	Args:    cobra.ExactArgs(1),
	Run:     runItemRemove,
}

var itemListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List items with their best price",
	Args:    cobra.NoArgs,
	Run:     runItemList,
}

var itemRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename an item",
	Args:  cobra.ExactArgs(2),
	Run:   runItemRename,
}

func init() {
	itemCmd.AddCommand(itemAddCmd, itemRemoveCmd, itemListCmd, itemRenameCmd)
}

func runItemAdd(_ *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	it, err := c.Catalog.AddItem(context.Background(), args[0])
	if err != nil {
		c.exitError("%v", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("Added item '%s'", it.Name)
	fmt.Printf(" (%s)\n", it.ShortID())
}

func runItemRemove(_ *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	id, err := c.Catalog.ResolveItemID(args[0])
	if err != nil {
		c.exitError("%v", err)
	}
	it, err := c.Catalog.Item(id)
	if err != nil {
		c.exitError("%v", err)
	}
	if err := c.Catalog.RemoveItem(context.Background(), id); err != nil {
		c.exitError("%v", err)
	}

	fmt.Printf("Removed item '%s' (%s)\n", it.Name, it.ShortID())
}

func runItemList(_ *cobra.Command, _ []string) {
	c := initContext()
	defer c.Close()

	renderItems(os.Stdout, c.Catalog.Vendors(), c.Catalog.Items())
}

func runItemRename(_ *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	id, err := c.Catalog.ResolveItemID(args[0])
	if err != nil {
		c.exitError("%v", err)
	}
	it, err := c.Catalog.RenameItem(context.Background(), id, args[1])
	if err != nil {
		c.exitError("%v", err)
	}

	fmt.Printf("Renamed item %s to '%s'\n", it.ShortID(), it.Name)
}
