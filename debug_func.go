package main

import (
	"fmt"
	"os"

	"borrowck/internal/check"
	"borrowck/internal/diag"
	"borrowck/internal/mir"
)

func main() {
	file := "testdata/demo.mir"
	if len(os.Args) > 1 {
		file = os.Args[1]
	}
	unit, err := mir.ReadUnitFile(file)
	if err != nil {
		fmt.Printf("decode error: %v\n", err)
		os.Exit(1)
	}
	if err := mir.Validate(unit.Module, unit.Types); err != nil {
		fmt.Printf("validate error: %v\n", err)
		os.Exit(1)
	}
	for _, fn := range unit.Module.SortedFuncs() {
		bag := check.Func(fn, unit.Types, check.Options{MaxDiagnostics: 100})
		if bag.Len() == 0 {
			continue
		}
		fmt.Printf("fn %s: %d diagnostics\n", fn.Name, bag.Len())
		out := diag.FormatShortDiagnostics(bag.Items(), unit.Files, true)
		if out != "" {
			fmt.Println(out)
		}
		dumpFunc(unit, fn.ID)
	}
}

func dumpFunc(unit *mir.Unit, id mir.FuncID) {
	fn := unit.Module.Funcs[id]
	if fn == nil {
		fmt.Printf("func %d not found\n", id)
		return
	}
	single := mir.NewModule(unit.Module.Name)
	single.Add(fn)
	if err := mir.DumpModule(os.Stdout, single, unit.Types, mir.DumpOptions{IncludeSpans: true}); err != nil {
		fmt.Printf("dump error: %v\n", err)
	}
}
