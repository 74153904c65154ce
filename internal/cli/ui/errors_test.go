package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/schemacraft/internal/orm/schema"
)

func TestFormatError(t *testing.T) {
	tests := []struct {
		name     string
		opts     ErrorOptions
		contains []string
	}{
		{
			name: "basic error",
			opts: ErrorOptions{
				Level:   ErrorLevelError,
				Context: "model not found",
				Problem: "Cannot find model 'Pst'.",
			},
			contains: []string{"✗ MODEL NOT FOUND: Cannot find model 'Pst'."},
		},
		{
			name: "location and consequence",
			opts: ErrorOptions{
				Problem:     "bad field",
				Location:    "Post.title",
				Consequence: "Got: 3",
			},
			contains: []string{"✗ bad field", "   at Post.title", "   Got: 3"},
		},
		{
			name: "suggestions and help",
			opts: ErrorOptions{
				Problem:      "unknown",
				Suggestions:  []string{"Post", "Tag"},
				HelpCommands: []string{"Get help: schemacraft --help"},
			},
			contains: []string{"Did you mean: Post, Tag?", "→ Get help: schemacraft --help"},
		},
		{
			name:     "warning",
			opts:     ErrorOptions{Level: ErrorLevelWarning, Problem: "careful"},
			contains: []string{"⚠ careful"},
		},
		{
			name:     "info",
			opts:     ErrorOptions{Level: ErrorLevelInfo, Problem: "fyi"},
			contains: []string{"ℹ fyi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.NoColor = true
			out := FormatError(tt.opts)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestCompileFailure(t *testing.T) {
	c := schema.NewCompiler(nil, nil, nil)
	node := schema.NewClass("Node", nil)
	c.Store().Prop(node, "parent", node, nil)

	_, err := c.CompileSchema(node, nil, nil)
	require.Error(t, err)

	out := CompileFailure(err, true)
	assert.Contains(t, out, "COMPILE FAILED [E004]: type is the same as the owning class")
	assert.Contains(t, out, "at Node.parent")
	assert.Contains(t, out, "Got: Node")
	assert.Contains(t, out, "schemacraft compile --help")
}

func TestCompileFailurePlainError(t *testing.T) {
	out := CompileFailure(errors.New("read failed"), true)
	assert.Contains(t, out, "COMPILE FAILED: read failed")
	assert.NotContains(t, out, " at ")
}

func TestModelNotFoundError(t *testing.T) {
	out := ModelNotFoundError("Pst", []string{"Post", "Author"}, true)
	assert.Contains(t, out, "Cannot find model 'Pst'.")
	assert.Contains(t, out, "Did you mean: Post?")
}

func TestConfigErrorAndWarning(t *testing.T) {
	assert.Contains(t, ConfigError("bad driver", true), "CONFIGURATION ERROR: bad driver")
	assert.Contains(t, Warning("slow", true), "⚠ slow")
}

func TestWriteSuccess(t *testing.T) {
	var buf bytes.Buffer
	WriteSuccess(&buf, "compiled 2 models", true)
	assert.Equal(t, "✓ compiled 2 models\n", buf.String())
}

func TestWriteDiagnostics(t *testing.T) {
	diagnostics := []schema.Diagnostic{
		{Code: "W002", Class: "Post", Field: "payload", Message: `setting "Mixed" for the path`},
		{Code: "W001", Class: "Author", Field: "age", Message: "string options on a Number"},
		{Code: "W003", Class: "Post", Field: "owner", Message: "justOne without virtual"},
	}

	var buf bytes.Buffer
	WriteDiagnostics(&buf, diagnostics, true)

	assert.Equal(t, "⚠ Post\n"+
		"   W002 payload: setting \"Mixed\" for the path\n"+
		"   W003 owner: justOne without virtual\n"+
		"⚠ Author\n"+
		"   W001 age: string options on a Number\n", buf.String())

	buf.Reset()
	WriteDiagnostics(&buf, nil, true)
	assert.Empty(t, buf.String())
}

func TestDiagnosticSummary(t *testing.T) {
	assert.Equal(t, "no warnings", DiagnosticSummary(nil))
	assert.Equal(t, "1 warning", DiagnosticSummary(make([]schema.Diagnostic, 1)))
	assert.Equal(t, "3 warnings", DiagnosticSummary(make([]schema.Diagnostic, 3)))
}
