// cmd/vibes/printer.go
package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"
)

// Printer centralizes output formatting across subcommands and respects
// the root --output flag.
type Printer struct {
	format string
	out    io.Writer
}

func getPrinter() Printer { return Printer{format: flagOutput, out: os.Stdout} }

func (p Printer) JSONMode() bool { return p.format == "json" }

func (p Printer) Textf(format string, a ...any) { fmt.Fprintf(p.out, format, a...) }

// JSON pretty-prints v. Encoding errors are returned so the exit code reflects them.
func (p Printer) JSON(v any) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table prints aligned "label  value" rows.
func (p Printer) Table(rows [][2]string) {
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\n", r[0], r[1])
	}
	_ = w.Flush()
}

// Emit prints v as JSON in json mode and calls text otherwise.
func (p Printer) Emit(v any, text func()) error {
	switch p.format {
	case "json":
		return p.JSON(v)
	case "text", "":
		text()
		return nil
	default:
		return fmt.Errorf("invalid --output: %s (use json|text)", p.format)
	}
}
