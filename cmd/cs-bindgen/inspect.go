package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wippyai/cs-bindgen/pipeline"
)

var inspectInteractive bool

var inspectCmd = &cobra.Command{
	Use:   "inspect [module.wasm]",
	Short: "List the declarations recovered from a module",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().BoolVarP(&inspectInteractive, "interactive", "i", false, "browse declarations interactively")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	module, err := moduleArg(args)
	if err != nil {
		return err
	}
	set, err := pipeline.Load(cmd.Context(), pipelineOptions(module))
	if err != nil {
		return err
	}
	rows := entries(set)

	if inspectInteractive {
		if !isTerminal(os.Stdout) {
			return fmt.Errorf("--interactive requires a terminal")
		}
		return runBrowser(module, rows)
	}

	writeTable(os.Stdout, rows, isTerminal(os.Stdout))
	fmt.Fprintf(os.Stdout, "\n%d declarations: %d types, %d functions, %d methods\n",
		set.Len(), len(set.Named()), len(set.Fns()), len(set.Methods()))
	return nil
}

// writeTable prints rows as aligned columns. Styling is applied after padding
// so escape sequences do not disturb the alignment.
func writeTable(w io.Writer, rows []entry, styled bool) {
	headers := [...]string{"KIND", "IDENTIFIER", "SIGNATURE", "BINDING"}
	widths := [len(headers)]int{}
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, r := range rows {
		for i, cell := range r.cells() {
			widths[i] = max(widths[i], len(cell))
		}
	}

	cell := func(s string, width int, last bool) string {
		if last {
			return s
		}
		return s + strings.Repeat(" ", width-len(s)+2)
	}
	render := func(s string, style lipgloss.Style) string {
		if !styled {
			return s
		}
		return style.Render(s)
	}

	var line strings.Builder
	for i, h := range headers {
		pad := cell(h, widths[i], i == len(headers)-1)
		line.WriteString(render(h, headerStyle) + pad[len(h):])
	}
	fmt.Fprintln(w, line.String())

	styles := [len(headers)]lipgloss.Style{kindStyle, typeStyle, funcStyle, helpStyle}
	for _, r := range rows {
		line.Reset()
		for i, c := range r.cells() {
			pad := cell(c, widths[i], i == len(headers)-1)
			line.WriteString(render(c, styles[i]) + pad[len(c):])
		}
		fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
	}
}

func (e entry) cells() [4]string {
	return [4]string{e.kind, e.id, e.signature, e.binding}
}
