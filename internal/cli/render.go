package cli

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/kilupskalvis/pricecmp/internal/models"
)

const missingPrice = "-"

// pad right-pads s to width runes
func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func width(header string, values ...string) int {
	w := utf8.RuneCountInString(header)
	for _, v := range values {
		if n := utf8.RuneCountInString(v); n > w {
			w = n
		}
	}
	return w
}

// renderVendors prints vendors in creation order
func renderVendors(w io.Writer, vendors []models.Vendor) {
	if len(vendors) == 0 {
		fmt.Fprintln(w, "No vendors")
		return
	}
	for _, v := range vendors {
		color.New(color.FgYellow).Fprintf(w, "%s", v.ShortID())
		fmt.Fprintf(w, "  %s\n", v.Name)
	}
}

// renderItems prints items with their quote count and best offer
func renderItems(w io.Writer, vendors []models.Vendor, items []models.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items")
		return
	}

	names := make(map[string]string, len(vendors))
	for _, v := range vendors {
		names[v.ID] = v.Name
	}

	itemNames := make([]string, len(items))
	for i, it := range items {
		itemNames[i] = it.Name
	}
	nameW := width("", itemNames...)

	yellow := color.New(color.FgYellow)
	green := color.New(color.FgGreen)
	for _, it := range items {
		yellow.Fprintf(w, "%s", it.ShortID())
		fmt.Fprintf(w, "  %s  %d quote(s)", pad(it.Name, nameW), len(it.Prices))
		if best, ok := it.BestPrice(); ok {
			var by []string
			for _, id := range it.BestVendors() {
				by = append(by, names[id])
			}
			fmt.Fprint(w, "  best ")
			green.Fprint(w, formatPrice(best))
			fmt.Fprintf(w, " (%s)", strings.Join(by, ", "))
		}
		fmt.Fprintln(w)
	}
}

// renderComparison prints the item-by-vendor matrix. The best price of
// each row is highlighted; missing quotes are shown as "-".
func renderComparison(w io.Writer, cmp *models.Comparison) {
	if len(cmp.Rows) == 0 {
		fmt.Fprintln(w, "No items match")
		return
	}

	cells := make([][]string, len(cmp.Rows))
	itemNames := make([]string, len(cmp.Rows))
	bests := make([]string, len(cmp.Rows))
	for r, row := range cmp.Rows {
		itemNames[r] = row.ItemName
		cells[r] = make([]string, len(row.Cells))
		for i, p := range row.Cells {
			if p == nil {
				cells[r][i] = missingPrice
			} else {
				cells[r][i] = formatPrice(*p)
			}
		}
		bests[r] = missingPrice
		if row.BestPrice != nil {
			bests[r] = formatPrice(*row.BestPrice)
		}
	}

	nameW := width("ITEM", itemNames...)
	colW := make([]int, len(cmp.Vendors))
	for i, v := range cmp.Vendors {
		col := make([]string, len(cells))
		for r := range cells {
			col[r] = cells[r][i]
		}
		colW[i] = width(v.Name, col...)
	}
	bestW := width("BEST", bests...)

	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)

	bold.Fprint(w, pad("ITEM", nameW))
	for i, v := range cmp.Vendors {
		fmt.Fprint(w, "  ")
		bold.Fprint(w, pad(v.Name, colW[i]))
	}
	fmt.Fprint(w, "  ")
	bold.Fprintln(w, pad("BEST", bestW))

	for r, row := range cmp.Rows {
		fmt.Fprint(w, pad(row.ItemName, nameW))
		for i := range cmp.Vendors {
			fmt.Fprint(w, "  ")
			cell := pad(cells[r][i], colW[i])
			if row.IsBest(i) {
				green.Fprint(w, cell)
			} else {
				fmt.Fprint(w, cell)
			}
		}
		fmt.Fprint(w, "  ")
		if row.BestPrice != nil {
			green.Fprintln(w, bests[r])
		} else {
			fmt.Fprintln(w, bests[r])
		}
	}
}
