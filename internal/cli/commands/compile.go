package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/schemacraft/internal/cli/ui"
	"github.com/conduit-lang/schemacraft/internal/orm/modelfile"
	"github.com/conduit-lang/schemacraft/internal/orm/schema"
)

// compileOptions are the flags shared by compile and catalog publish
type compileOptions struct {
	models     []string
	allowMixed string
}

func (o *compileOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&o.models, "model", "m", nil, "Compile only these models (repeatable)")
	cmd.Flags().StringVar(&o.allowMixed, "allow-mixed", "", "Override the Mixed fallback severity (ALLOW, WARN, ERROR or 0-2)")
}

// compileResult holds the models of one model file, in file order
type compileResult struct {
	models      []*schema.Model
	diagnostics []schema.Diagnostic
}

// NewCompileCommand creates the compile command
func NewCompileCommand() *cobra.Command {
	opts := &compileOptions{}
	var out string

	cmd := &cobra.Command{
		Use:   "compile <model-file>",
		Short: "Compile a model file and print the schema descriptions",
		Long: `Compile every model declared in a YAML model file and print the schema
descriptions as JSON, in the order the models are declared.

Diagnostics are written to stderr. The command fails on the first
compilation error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			res, err := s.compile(cmd, args[0], opts)
			if err != nil {
				return err
			}

			schemas := make([]*schema.Schema, 0, len(res.models))
			for _, m := range res.models {
				schemas = append(schemas, m.Schema)
			}
			data, err := json.MarshalIndent(schemas, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode schemas: %w", err)
			}
			data = append(data, '\n')

			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			ui.WriteSuccess(cmd.ErrOrStderr(),
				fmt.Sprintf("Compiled %d models to %s (%s)", len(schemas), out, ui.DiagnosticSummary(res.diagnostics)),
				s.noColor)
			return nil
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the JSON to a file instead of stdout")

	return cmd
}

// compile loads, registers and compiles a model file. Failures are
// rendered on stderr before they are returned.
func (s *session) compile(cmd *cobra.Command, path string, opts *compileOptions) (*compileResult, error) {
	stderr := cmd.ErrOrStderr()

	file, err := modelfile.Load(path)
	if err != nil {
		return nil, err
	}
	if len(file.Models) == 0 {
		fmt.Fprint(stderr, ui.Warning(fmt.Sprintf("%s declares no models", path), s.noColor))
	}

	c := schema.NewCompiler(nil, nil, s.logger)
	global, err := s.cfg.GlobalOptions()
	if err != nil {
		return nil, err
	}
	if opts.allowMixed != "" {
		sev, err := schema.ParseSeverity(opts.allowMixed)
		if err != nil {
			return nil, fmt.Errorf("--allow-mixed: %w", err)
		}
		global.Options.AllowMixed = sev.Ptr()
	}
	c.SetGlobalOptions(global)

	reg, err := file.Register(c)
	if err != nil {
		return nil, err
	}

	classes := reg.Classes
	if len(opts.models) > 0 {
		classes = classes[:0:0]
		for _, name := range opts.models {
			cl, ok := reg.Class(name)
			if !ok {
				fmt.Fprint(stderr, ui.ModelNotFoundError(name, file.ModelNames(), s.noColor))
				return nil, &reportedError{err: fmt.Errorf("model %s is not declared in %s", name, path)}
			}
			classes = append(classes, cl)
		}
	}

	res := &compileResult{}
	for _, cl := range classes {
		m, err := c.Model(cl, nil)
		if err != nil {
			ui.WriteDiagnostics(stderr, c.Diagnostics(), s.noColor)
			fmt.Fprint(stderr, ui.CompileFailure(err, s.noColor))
			return nil, &reportedError{err: err}
		}
		s.logger.Debug("compiled model", zap.String("model", m.Name), zap.Int("paths", m.Schema.Fields.Len()))
		res.models = append(res.models, m)
	}
	res.diagnostics = c.Diagnostics()
	ui.WriteDiagnostics(stderr, res.diagnostics, s.noColor)
	return res, nil
}
