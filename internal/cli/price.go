package cli

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Set or clear vendor prices",
	Long: `Record the price a vendor quotes for an item, or clear it.

A price of 0 is stored but never counts as the best price.

Examples:
  pricecmp price set e4a1d07f 93b5e2d4 9.99
  pricecmp price clear e4a1d07f 93b5e2d4`,
}

var priceSetCmd = &cobra.Command{
	Use:   "set <item-id> <vendor-id> <price>",
	Short: "Set the price a vendor quotes for an item",
	Args:  cobra.ExactArgs(3),
	Run:   runPriceSet,
}

var priceClearCmd = &cobra.Command{
	Use:   "clear <item-id> <vendor-id>",
	Short: "Remove the price a vendor quotes for an item",
	Args:  cobra.ExactArgs(2),
	Run:   runPriceClear,
}

func init() {
	priceCmd.AddCommand(priceSetCmd, priceClearCmd)
}

func runPriceSet(_ *cobra.Command, args []string) {
	price, err := parsePrice(args[2])
	if err != nil {
		exitError("%v", err)
	}

	c := initContext()
	defer c.Close()

	itemID, vendorID := resolvePair(c, args[0], args[1])
	it, err := c.Catalog.UpdatePrice(context.Background(), itemID, vendorID, price)
	if err != nil {
		c.exitError("%v", err)
	}
	v, _ := c.Catalog.Vendor(vendorID)

	fmt.Printf("Set %s price for '%s' to %s\n", v.Name, it.Name, formatPrice(price))
	if best, ok := it.BestPrice(); ok {
		fmt.Printf("Best price: %s\n", formatPrice(best))
	}
}

func runPriceClear(_ *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	itemID, vendorID := resolvePair(c, args[0], args[1])
	it, err := c.Catalog.ClearPrice(context.Background(), itemID, vendorID)
	if err != nil {
		c.exitError("%v", err)
	}
	v, _ := c.Catalog.Vendor(vendorID)

	fmt.Printf("Cleared %s price for '%s'\n", v.Name, it.Name)
}

// resolvePair expands item and vendor short ids
func resolvePair(c *cmdContext, itemRef, vendorRef string) (string, string) {
	itemID, err := c.Catalog.ResolveItemID(itemRef)
	if err != nil {
		c.exitError("%v", err)
	}
	vendorID, err := c.Catalog.ResolveVendorID(vendorRef)
	if err != nil {
		c.exitError("%v", err)
	}
	return itemID, vendorID
}

// parsePrice parses a decimal price argument
func parsePrice(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("price must not be negative: %s", s)
	}
	f, _ := d.Float64()
	return f, nil
}

// formatPrice renders a price with two decimals
func formatPrice(p float64) string {
	return decimal.NewFromFloat(p).StringFixed(2)
}
