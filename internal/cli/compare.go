package cli

import (
	"os"

	"github.com/kilupskalvis/pricecmp/internal/models"
	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Show the price comparison table",
	Long: `Show every item against every vendor with the best price highlighted.

Items can be narrowed by name, price range, vendor or an expression over
name, best, hasBest, quotes, prices, lowest and highest.

Examples:
  pricecmp compare
  pricecmp compare --search widget --max 20
  pricecmp compare --vendor 93b5e2d4
  pricecmp compare --where 'hasBest && quotes >= 2'`,
	Args: cobra.NoArgs,
	Run:  runCompare,
}

var (
	compareSearch string
	compareMin    float64
	compareMax    float64
	compareVendor string
	compareWhere  string
)

func init() {
	f := compareCmd.Flags()
	f.StringVarP(&compareSearch, "search", "s", "", "Case-insensitive item name filter")
	f.Float64Var(&compareMin, "min", 0, "Lowest price of interest")
	f.Float64Var(&compareMax, "max", 0, "Highest price of interest (unbounded when unset)")
	f.StringVar(&compareVendor, "vendor", "", "Only items quoted by this vendor")
	f.StringVar(&compareWhere, "where", "", "Filter expression")
}

func runCompare(cmd *cobra.Command, _ []string) {
	c := initContext()
	defer c.Close()

	f := models.Filter{
		Search: compareSearch,
		Min:    compareMin,
		Expr:   compareWhere,
	}
	if cmd.Flags().Changed("max") {
		hi := compareMax
		f.Max = &hi
	}
	if compareVendor != "" {
		id, err := c.Catalog.ResolveVendorID(compareVendor)
		if err != nil {
			c.exitError("%v", err)
		}
		f.VendorID = id
	}

	cmp, err := c.Catalog.Compare(f)
	if err != nil {
		c.exitError("%v", err)
	}
	renderComparison(os.Stdout, cmp)
}
