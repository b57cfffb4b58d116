package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kilupskalvis/pricecmp/internal/catalog"
	"github.com/kilupskalvis/pricecmp/internal/models"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Snapshot encodings accepted by export and import.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the catalog as JSON or YAML",
	Long: `Write every vendor, item and price to stdout or a file.

Examples:
  pricecmp export > catalog.json
  pricecmp export --format yaml -o catalog.yaml`,
	Args: cobra.NoArgs,
	Run:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Add vendors, items and prices from an exported file",
	Long: `Add the contents of a JSON or YAML export to the catalog.

Imported vendors and items get fresh IDs. Prices that refer to a vendor
missing from the file are skipped. Files ending in .yaml or .yml are read
as YAML, anything else as JSON.`,
	Args: cobra.ExactArgs(1),
	Run:  runImport,
}

var (
	exportFormat string
	exportOutput string
)

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", formatJSON, "Output format (json|yaml)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
}

func runExport(_ *cobra.Command, _ []string) {
	c := initContext()
	defer c.Close()

	var buf bytes.Buffer
	if err := encodeSnapshot(&buf, c.Catalog.Snapshot(), exportFormat); err != nil {
		c.exitError("%v", err)
	}

	if exportOutput == "" {
		os.Stdout.Write(buf.Bytes())
		return
	}
	if err := writeFileAtomic(exportOutput, &buf); err != nil {
		c.exitError("failed to write %s: %v", exportOutput, err)
	}
	fmt.Fprintf(os.Stderr, "Exported catalog to %s\n", exportOutput)
}

func runImport(_ *cobra.Command, args []string) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		exitError("failed to read %s: %v", args[0], err)
	}
	snap, err := decodeSnapshot(data, formatFromPath(args[0]))
	if err != nil {
		exitError("%v", err)
	}

	c := initContext()
	defer c.Close()

	res, err := importSnapshot(context.Background(), c.Catalog, snap)
	if err != nil {
		c.exitError("import stopped after %d vendors, %d items: %v", res.Vendors, res.Items, err)
	}

	fmt.Printf("Imported %d vendors, %d items, %d prices\n", res.Vendors, res.Items, res.Prices)
	if res.Skipped > 0 {
		fmt.Printf("Skipped %d prices for unknown vendors\n", res.Skipped)
	}
}

// writeFileAtomic writes r to a temp file next to path and renames it into place
func writeFileAtomic(path string, r io.Reader) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".pricecmp-export-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := io.Copy(tmpFile, r); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write export: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod export: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename export: %w", err)
	}
	return nil
}

// encodeSnapshot writes snap in the given format
func encodeSnapshot(w io.Writer, snap *models.Snapshot, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}

// decodeSnapshot parses an exported catalog
func decodeSnapshot(data []byte, format string) (*models.Snapshot, error) {
	var snap models.Snapshot
	switch format {
	case formatJSON:
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	case formatYAML:
		if err := yaml.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
	return &snap, nil
}

// formatFromPath picks the snapshot format from a file extension
func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatJSON
	}
}

// importResult counts what importSnapshot created
type importResult struct {
	Vendors int
	Items   int
	Prices  int
	Skipped int
}

// importSnapshot replays snap through st. Vendors and items receive new IDs;
// prices keyed by vendors absent from snap are skipped.
func importSnapshot(ctx context.Context, st *catalog.Store, snap *models.Snapshot) (importResult, error) {
	var res importResult
	ids := make(map[string]string, len(snap.Vendors))

	for _, v := range snap.Vendors {
		nv, err := st.AddVendor(ctx, v.Name)
		if err != nil {
			return res, fmt.Errorf("vendor %q: %w", v.Name, err)
		}
		ids[v.ID] = nv.ID
		res.Vendors++
	}

	for _, it := range snap.Items {
		ni, err := st.AddItem(ctx, it.Name)
		if err != nil {
			return res, fmt.Errorf("item %q: %w", it.Name, err)
		}
		res.Items++

		// Iterate in vendor order so replays are deterministic
		for _, v := range snap.Vendors {
			p, ok := it.Prices[v.ID]
			if !ok {
				continue
			}
			if _, err := st.UpdatePrice(ctx, ni.ID, ids[v.ID], p); err != nil {
				return res, fmt.Errorf("price for %q from %q: %w", it.Name, v.Name, err)
			}
			res.Prices++
		}
		for vendorID := range it.Prices {
			if _, ok := ids[vendorID]; !ok {
				res.Skipped++
			}
		}
	}
	return res, nil
}
