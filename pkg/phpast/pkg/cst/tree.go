package cst

import (
	"context"
	"fmt"
	"strings"
)

// Severity grades a diagnostic.
type Severity string

// Severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a syntax problem reported while parsing.
type Diagnostic struct {
	Start    uint32   `json:"start"`
	End      uint32   `json:"end"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Tree is a parsed source file. It is immutable and may be shared between
// goroutines and conversions.
type Tree struct {
	Root        *Node
	Source      []byte
	Diagnostics []Diagnostic
}

// Parser produces concrete syntax trees. Implementations must tolerate
// malformed input and report problems as diagnostics.
type Parser interface {
	Parse(ctx context.Context, src []byte) (*Tree, error)
}

const maxSnippet = 24

// Diagnose collects one diagnostic per ERROR node and per missing token.
func Diagnose(root *Node, src []byte) []Diagnostic {
	var diags []Diagnostic

	Walk(root, func(n *Node) bool {
		switch {
		case n.IsError():
			diags = append(diags, Diagnostic{
				Start:    n.Start,
				End:      n.End,
				Message:  fmt.Sprintf("syntax error, unexpected '%s'", snippet(n.Text(src))),
				Severity: SeverityError,
			})

			return false
		case n.Missing:
			diags = append(diags, Diagnostic{
				Start:    n.Start,
				End:      n.End,
				Message:  fmt.Sprintf("syntax error, missing '%s'", n.Kind),
				Severity: SeverityError,
			})
		}

		return true
	})

	return diags
}

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > maxSnippet {
		return text[:maxSnippet] + "..."
	}

	return text
}
