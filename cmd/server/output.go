package main

import (
	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	printer = message.NewPrinter(language.English)
	titler  = cases.Title(language.English)
)

// amount renders a KD amount with thousands separators and fils precision.
func amount(d decimal.Decimal) string {
	f, _ := d.Float64()
	return printer.Sprintf("%.3f KD", f)
}

func category(c string) string {
	return titler.String(c)
}

func renderTable(header []string, rows [][]string) error {
	data := pterm.TableData{header}
	data = append(data, rows...)
	return pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(data).
		Render()
}
