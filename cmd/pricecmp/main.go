// Command pricecmp manages a vendor price comparison catalog.
package main

import (
	"os"

	"github.com/kilupskalvis/pricecmp/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
