package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/conduit-lang/schemacraft/internal/orm/schema"
)

// ErrorLevel represents the severity of a message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Location     string
	Consequence  string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// palette returns the header color, body color and symbol of a level
func palette(level ErrorLevel, noColor bool) (*color.Color, *color.Color, string) {
	var header, body *color.Color
	var symbol string

	switch level {
	case ErrorLevelWarning:
		header = color.New(color.FgYellow, color.Bold)
		body = color.New(color.FgYellow)
		symbol = "⚠"
	case ErrorLevelInfo:
		header = color.New(color.FgCyan, color.Bold)
		body = color.New(color.FgCyan)
		symbol = "ℹ"
	default:
		header = color.New(color.FgRed, color.Bold)
		body = color.New(color.FgRed)
		symbol = "✗"
	}

	if noColor {
		header.DisableColor()
		body.DisableColor()
	}
	return header, body, symbol
}

func paint(noColor bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if noColor {
		c.DisableColor()
	}
	return c
}

// FormatError creates a standardized message
//
// Example output:
//
//	✗ COMPILE FAILED [E004]: type is the same as the owning class
//	   at Node.parent
//
//	   → Get help: schemacraft compile --help
func FormatError(opts ErrorOptions) string {
	var b strings.Builder
	header, body, symbol := palette(opts.Level, opts.NoColor)

	if opts.Context != "" {
		header.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if opts.Location != "" {
		body.Fprintf(&b, "   at %s\n", opts.Location)
	}

	if opts.Consequence != "" {
		b.WriteString("\n")
		body.Fprintf(&b, "   %s\n", opts.Consequence)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		paint(opts.NoColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := paint(opts.NoColor, color.FgCyan)
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	return paint(noColor, color.FgGreen, color.Bold).Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// CompileFailure formats a compilation error. Compile errors show their
// code and the class and field they were raised for.
func CompileFailure(err error, noColor bool) string {
	opts := ErrorOptions{
		Level:        ErrorLevelError,
		Context:      "COMPILE FAILED",
		Problem:      err.Error(),
		HelpCommands: []string{"Get help: schemacraft compile --help"},
		NoColor:      noColor,
	}

	var ce *schema.CompileError
	if errors.As(err, &ce) {
		opts.Context = fmt.Sprintf("COMPILE FAILED [%s]", ce.Code)
		opts.Problem = ce.Err.Error()
		if ce.Detail != "" {
			opts.Problem += ": " + ce.Detail
		}
		if ce.Class != "" {
			opts.Location = ce.Class
			if ce.Field != "" {
				opts.Location += "." + ce.Field
			}
		}
		if ce.Value != nil {
			opts.Consequence = fmt.Sprintf("Got: %v", ce.Value)
		}
	}
	return FormatError(opts)
}

// ModelNotFoundError formats an unknown model name with close matches
func ModelNotFoundError(name string, models []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "MODEL NOT FOUND",
		Problem:     fmt.Sprintf("Cannot find model '%s'.", name),
		Suggestions: FindSimilar(name, models, nil),
		HelpCommands: []string{
			"Compile every model: schemacraft compile <file>",
		},
		NoColor: noColor,
	})
}

// ConfigError creates a standardized configuration error
func ConfigError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelError,
		Context: "CONFIGURATION ERROR",
		Problem: message,
		HelpCommands: []string{
			"View config: cat schemacraft.yml",
			"Get help: schemacraft --help",
		},
		NoColor: noColor,
	})
}

// Warning creates a standardized warning message
func Warning(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelWarning,
		Problem: message,
		NoColor: noColor,
	})
}
