package main

import (
	"fmt"
	"os"
	"time"

	"github.com/javajack/xlcalc"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   appName + " [flags] workbook.xlsx",
	Short: "Translate and compute spreadsheet formulas",
	Long: "Translate and compute spreadsheet formulas.\n\n" +
		"Reads an xlsx workbook, translates its formulas into a script, and\n" +
		"answers questions about cells: computed values, raw formulas, and\n" +
		"dependency or dependant trees. Without flags it prints the computed\n" +
		"value of every populated cell.\n\n" +
		"Bare cell references like B2 resolve against the first sheet.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyConfig(cfg)

		var opts []xlcalc.Option
		if flagTimeout != "" {
			d, err := time.ParseDuration(flagTimeout)
			if err != nil {
				return fmt.Errorf("invalid --timeout %q: %w", flagTimeout, err)
			}
			opts = append(opts, xlcalc.WithTimeout(d))
		}

		book, err := xlcalc.Open(args[0], opts...)
		if err != nil {
			return err
		}
		return run(book)
	},
}

// run performs every action the flags request, in a fixed order. With no
// action flags it prints all computed values.
func run(book *xlcalc.Book) error {
	acted := false

	if flagFormula != "" {
		ref, err := parseTarget(book, flagFormula)
		if err != nil {
			return err
		}
		fmt.Println(book.FormulaOrValue(ref))
		acted = true
	}

	if flagCompute != "" {
		ref, err := parseTarget(book, flagCompute)
		if err != nil {
			return err
		}
		value, err := book.ComputedValue(ref)
		if err != nil {
			return err
		}
		fmt.Println(formatValue(value))
		acted = true
	}

	if flagDependencies != "" {
		if err := showDependencies(book, flagDependencies); err != nil {
			return err
		}
		acted = true
	}

	if flagDependants != "" {
		ref, err := parseTarget(book, flagDependants)
		if err != nil {
			return err
		}
		fmt.Println(dependantTree(book, ref))
		acted = true
	}

	if flagOutput != "" {
		if err := writeScript(book, flagOutput); err != nil {
			return err
		}
		acted = true
	}

	if !acted {
		printAll(book)
	}
	return nil
}

// showDependencies prints one dependency tree, or one per formula cell for
// the valueless flag form.
func showDependencies(book *xlcalc.Book, target string) error {
	if target != "all" {
		ref, err := parseTarget(book, target)
		if err != nil {
			return err
		}
		fmt.Println(dependencyTree(book, ref))
		return nil
	}
	for _, ref := range book.Workbook().Refs() {
		cell := book.Workbook().Cell(ref)
		if cell == nil || !cell.IsFormula() {
			continue
		}
		fmt.Println(dependencyTree(book, ref))
	}
	return nil
}

// writeScript validates the workbook and writes the whole-book generated
// script. Validation issues block the write.
func writeScript(book *xlcalc.Book, path string) error {
	if issues := book.Validate(); len(issues) > 0 {
		for _, issue := range issues {
			fmt.Fprintln(os.Stderr, issue)
		}
		return fmt.Errorf("workbook has %d validation issue(s); no script written", len(issues))
	}
	script, err := book.Script()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(script.Source()), 0o644); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	fmt.Printf("wrote %s (%d cells)\n", path, len(script.Order()))
	return nil
}

// printAll prints every populated cell with its computed value, in sheet
// order. Per-cell failures are printed in place and never stop the rest.
func printAll(book *xlcalc.Book) {
	for _, ref := range book.Workbook().Refs() {
		label := styled(refStyle, ref.String())
		value, err := book.ComputedValue(ref)
		if err != nil {
			fmt.Printf("%s = %s\n", label, styled(errStyle, err.Error()))
			continue
		}
		fmt.Printf("%s = %s\n", label, styled(valueStyle, formatValue(value)))
	}
}

// parseTarget resolves CELL flag text, defaulting bare references to the
// workbook's first sheet.
func parseTarget(book *xlcalc.Book, text string) (xlcalc.CellRef, error) {
	sheets := book.Workbook().Sheets()
	defaultSheet := ""
	if len(sheets) > 0 {
		defaultSheet = sheets[0]
	}
	return xlcalc.ParseCellRefIn(text, defaultSheet)
}
