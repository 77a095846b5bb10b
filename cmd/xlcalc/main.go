package main

import (
	"fmt"
	"os"
)

var (
	flagCompute      string
	flagFormula      string
	flagOutput       string
	flagDependencies string
	flagDependants   string
	flagTimeout      string
	flagNoColor      bool
)

func main() {
	rootCmd.Flags().StringVarP(&flagCompute, "compute", "c", "",
		"print the computed value of CELL (e.g. B2 or Sheet2!C3)")
	rootCmd.Flags().StringVarP(&flagFormula, "formula", "f", "",
		"print the raw formula or value of CELL")
	rootCmd.Flags().StringVarP(&flagDependencies, "show-dependencies", "d", "",
		"print the dependency tree of CELL; pass --show-dependencies alone for every formula cell")
	rootCmd.Flags().StringVarP(&flagDependants, "show-dependants", "s", "",
		"print the dependant tree of CELL")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "",
		"validate the workbook and write its generated script to FILE")
	rootCmd.Flags().StringVar(&flagTimeout, "timeout", "",
		"evaluation time limit per cell, e.g. 30s (default 10s)")
	rootCmd.Flags().BoolVar(&flagNoColor, "no-color", false,
		"disable colored output")

	// --show-dependencies doubles as a valueless switch.
	rootCmd.Flags().Lookup("show-dependencies").NoOptDefVal = "all"

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		os.Exit(1)
	}
}
