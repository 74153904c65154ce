package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/conduit-lang/schemacraft/internal/orm/schema"
)

// WriteDiagnostics renders compiler diagnostics grouped by class, keeping
// the order in which each class first appears.
//
//	⚠ Post
//	   W002 payload: setting "Mixed" for the path
func WriteDiagnostics(w io.Writer, diagnostics []schema.Diagnostic, noColor bool) {
	if len(diagnostics) == 0 {
		return
	}

	var order []string
	byClass := make(map[string][]schema.Diagnostic)
	for _, d := range diagnostics {
		if _, seen := byClass[d.Class]; !seen {
			order = append(order, d.Class)
		}
		byClass[d.Class] = append(byClass[d.Class], d)
	}

	header, _, symbol := palette(ErrorLevelWarning, noColor)
	code := paint(noColor, color.FgYellow)
	field := paint(noColor, color.Bold)

	for _, class := range order {
		header.Fprintf(w, "%s %s\n", symbol, class)
		for _, d := range byClass[class] {
			fmt.Fprint(w, "   ")
			code.Fprint(w, d.Code)
			fmt.Fprint(w, " ")
			field.Fprint(w, d.Field)
			fmt.Fprintf(w, ": %s\n", d.Message)
		}
	}
}

// DiagnosticSummary returns a one-line count such as "2 warnings"
func DiagnosticSummary(diagnostics []schema.Diagnostic) string {
	switch len(diagnostics) {
	case 0:
		return "no warnings"
	case 1:
		return "1 warning"
	default:
		return fmt.Sprintf("%d warnings", len(diagnostics))
	}
}
