package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"weft/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "weft",
	Short: "Type-section layout toolkit",
	Long:  `Weft computes optimized type-section layouts for module descriptions`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("system", "isorecursive", "type system (equirecursive|isorecursive|nominal)")
	rootCmd.PersistentFlags().Int("jobs", 0, "parallel scan workers (0 = all CPUs)")
	rootCmd.PersistentFlags().Bool("no-cache", false, "skip the on-disk layout cache")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
