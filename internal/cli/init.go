package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/kilupskalvis/pricecmp/internal/config"
	"github.com/kilupskalvis/pricecmp/internal/store"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new pricecmp catalog",
	Long: `Initialize a new pricecmp catalog in the current directory.
This creates a .pricecmp directory holding the configuration and database.`,
	Args: cobra.NoArgs,
	Run:  runInit,
}

var initBackend string

func init() {
	initCmd.Flags().StringVar(&initBackend, "backend", config.DefaultBackend,
		"Storage backend ("+strings.Join(store.Backends, "|")+")")
}

func runInit(_ *cobra.Command, _ []string) {
	// Check if already initialized
	if root, err := config.FindRoot(); err == nil {
		exitError("pricecmp catalog already exists at %s", root)
	}

	wd, err := os.Getwd()
	if err != nil {
		exitError("%v", err)
	}

	cfg, err := config.Initialize(wd, initBackend)
	if err != nil {
		exitError("failed to initialize config: %v", err)
	}

	// Create the database so later commands start from a valid schema
	p, err := store.Open(cfg.Backend, cfg.DatabasePath())
	if err != nil {
		os.RemoveAll(cfg.Path())
		exitError("failed to create store: %v", err)
	}
	if p != nil {
		p.Close()
	}

	fmt.Printf("Initialized empty pricecmp catalog in %s/\n", config.Dir)
	fmt.Printf("Backend: %s\n", cfg.Backend)
	if cfg.Backend == store.BackendMemory {
		fmt.Printf("Note: the memory backend keeps data only for the lifetime of 'pricecmp serve'\n")
	}
}
