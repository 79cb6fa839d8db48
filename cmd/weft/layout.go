package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"weft/internal/driver"
	"weft/internal/types"
)

var layoutCmd = &cobra.Command{
	Use:   "layout [flags] module.wft.toml",
	Short: "Compute the optimized type-section layout of a module",
	Long:  `Layout discovers every heap type a module uses and prints the index each one gets in the type section`,
	Args:  cobra.ExactArgs(1),
	RunE:  runLayout,
}

func init() {
	layoutCmd.Flags().String("format", "auto", "output format (auto|pretty|plain)")
}

var (
	layoutHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	layoutIndexStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	layoutGroupStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func runLayout(cmd *cobra.Command, args []string) error {
	res, timer, err := runAnalysis(cmd, args[0])
	if err != nil {
		return err
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	pretty := format == "pretty" || (format == "auto" && isTerminal(os.Stdout))

	printLayout(res, pretty)
	if timer != nil {
		fmt.Fprint(os.Stderr, timer.Summary())
	}
	return nil
}

func printLayout(res *driver.Result, pretty bool) {
	store := res.Module.Types
	if pretty {
		header := fmt.Sprintf("%-5s %-20s %-7s %s", "index", "type", "kind", "group")
		fmt.Println(layoutHeaderStyle.Render(header))
		for i, t := range res.Indexed.Types {
			fmt.Printf("%s %-20s %-7s %s\n",
				layoutIndexStyle.Render(fmt.Sprintf("%-5d", i)),
				store.Name(t),
				store.Kind(t),
				layoutGroupStyle.Render(groupLabel(store, t)),
			)
		}
		if res.CacheHit {
			fmt.Println(layoutGroupStyle.Render("(cached)"))
		}
		return
	}
	for i, t := range res.Indexed.Types {
		fmt.Printf("%d\t%s\t%s\t%s\n", i, store.Name(t), store.Kind(t), groupLabel(store, t))
	}
}

func groupLabel(store *types.Store, t types.HeapType) string {
	g := store.Group(t)
	if len(store.GroupMembers(g)) <= 1 {
		return "-"
	}
	return fmt.Sprintf("g%d", g)
}
