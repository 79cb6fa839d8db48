package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"weft/internal/binary"
	"weft/internal/typeorder"
)

var encodeCmd = &cobra.Command{
	Use:   "encode [flags] module.wft.toml",
	Short: "Encode a module's binary type section",
	Long:  `Encode computes the optimized layout and emits the binary type section built from it`,
	Args:  cobra.ExactArgs(1),
	RunE:  runEncode,
}

func init() {
	encodeCmd.Flags().StringP("output", "o", "", "write the raw section to a file instead of printing hex")
}

func runEncode(cmd *cobra.Command, args []string) error {
	res, timer, err := runAnalysis(cmd, args[0])
	if err != nil {
		return err
	}

	systemName, err := cmd.Root().PersistentFlags().GetString("system")
	if err != nil {
		return fmt.Errorf("failed to get system flag: %w", err)
	}
	system, err := typeorder.ParseTypeSystem(systemName)
	if err != nil {
		return err
	}

	section := binary.TypeSection(res.Module.Types, res.Indexed, system)

	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	if output != "" {
		if err := os.WriteFile(output, section, 0o644); err != nil {
			return fmt.Errorf("write section: %w", err)
		}
	} else {
		fmt.Println(hex.EncodeToString(section))
	}
	if timer != nil {
		fmt.Fprint(os.Stderr, timer.Summary())
	}
	return nil
}
