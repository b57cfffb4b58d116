package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/kilupskalvis/pricecmp/internal/catalog"
	"github.com/kilupskalvis/pricecmp/internal/config"
	"github.com/kilupskalvis/pricecmp/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for pricecmp.

To load completions:

Bash:
  $ source <(pricecmp completion bash)
  # Or add to ~/.bashrc:
  $ echo 'source <(pricecmp completion bash)' >> ~/.bashrc

Zsh:
  $ source <(pricecmp completion zsh)
  # Or add to ~/.zshrc:
  $ echo 'source <(pricecmp completion zsh)' >> ~/.zshrc

Fish:
  $ pricecmp completion fish | source
  # Or add to config:
  $ pricecmp completion fish > ~/.config/fish/completions/pricecmp.fish
`,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		DisableFlagsInUseLine: true,
		Run: func(cmd *cobra.Command, args []string) {
			switch args[0] {
			case "bash":
				rootCmd.GenBashCompletion(os.Stdout)
			case "zsh":
				rootCmd.GenZshCompletion(os.Stdout)
			case "fish":
				rootCmd.GenFishCompletion(os.Stdout, true)
			case "powershell":
				rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
			}
		},
	})

	vendorRemoveCmd.ValidArgsFunction = completeVendors
	vendorRenameCmd.ValidArgsFunction = completeVendors
	itemRemoveCmd.ValidArgsFunction = completeItems
	itemRenameCmd.ValidArgsFunction = completeItems
	priceSetCmd.ValidArgsFunction = completePricePair
	priceClearCmd.ValidArgsFunction = completePricePair
}

// openQuiet opens the catalog without logging or exiting on failure
func openQuiet() (*catalog.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	p, err := store.Open(cfg.Backend, cfg.DatabasePath())
	if err != nil {
		return nil, err
	}
	st := catalog.New(catalog.WithPersister(p), catalog.WithLogger(newLogger(io.Discard, "error", "text")))
	if err := st.Load(context.Background()); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func completeVendors(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return vendorCompletions(toComplete), cobra.ShellCompDirectiveNoFileComp
}

func completeItems(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return itemCompletions(toComplete), cobra.ShellCompDirectiveNoFileComp
}

func completePricePair(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return itemCompletions(toComplete), cobra.ShellCompDirectiveNoFileComp
	case 1:
		return vendorCompletions(toComplete), cobra.ShellCompDirectiveNoFileComp
	default:
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}

func vendorCompletions(prefix string) []string {
	st, err := openQuiet()
	if err != nil {
		return nil
	}
	defer st.Close()

	var out []string
	for _, v := range st.Vendors() {
		if strings.HasPrefix(v.ID, prefix) {
			out = append(out, v.ID+"\t"+v.Name)
		}
	}
	return out
}

func itemCompletions(prefix string) []string {
	st, err := openQuiet()
	if err != nil {
		return nil
	}
	defer st.Close()

	var out []string
	for _, it := range st.Items() {
		if strings.HasPrefix(it.ID, prefix) {
			out = append(out, it.ID+"\t"+it.Name)
		}
	}
	return out
}
