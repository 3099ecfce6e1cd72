package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/cst"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/lineindex"
)

// printDiagnostics writes compiler-style "file:line:col: severity: message"
// lines.
func printDiagnostics(w io.Writer, label string, src []byte, diags []cst.Diagnostic) {
	if len(diags) == 0 {
		return
	}

	idx := lineindex.New(src)

	for _, d := range diags {
		severity := color.YellowString(string(d.Severity))
		if d.Severity == cst.SeverityError {
			severity = color.RedString(string(d.Severity))
		}

		offset := int(d.Start)

		fmt.Fprintf(w, "%s:%d:%d: %s: %s\n",
			label, idx.Line(offset), idx.Column(offset)+1, severity, sanitizeForTerminal(d.Message))
	}
}
