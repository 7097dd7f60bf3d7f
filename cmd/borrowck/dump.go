package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"borrowck/internal/mir"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] file.mir",
	Short: "Print a readable listing of a compiled module",
	Long:  `Dump decodes a .mir module file and prints its functions: locals with their attributes, basic blocks, instructions and terminators`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().Bool("spans", false, "append byte span ranges to instructions")
}

func runDump(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	// Получаем флаги
	withSpans, err := cmd.Flags().GetBool("spans")
	if err != nil {
		return fmt.Errorf("failed to get spans flag: %w", err)
	}

	unit, err := mir.ReadUnitFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to decode module: %w", err)
	}

	if err := mir.DumpModule(os.Stdout, unit.Module, unit.Types, mir.DumpOptions{IncludeSpans: withSpans}); err != nil {
		return fmt.Errorf("failed to dump module: %w", err)
	}
	return nil
}
