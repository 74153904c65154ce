package commands

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/schemacraft/internal/cli/config"
	"github.com/conduit-lang/schemacraft/internal/cli/ui"
	"github.com/conduit-lang/schemacraft/internal/logging"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// reportedError is an error whose message was already written to stderr
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "schemacraft",
		Short: "Compile declarative model definitions into document schemas",
		Long: color.CyanString(`schemacraft - model metadata to schema compiler

Reads model definitions, resolves their field types and options, and
compiles them into schema descriptions for a document persistence engine.

Features:
  • Nested arrays, maps and sub-documents
  • References, virtual populates and nested discriminators
  • Class inheritance with per-class hooks, indexes and plugins
  • A schema catalog backed by SQL or Redis`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default: schemacraft.yml in the current or a parent directory)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	// Add subcommands
	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewCompileCommand())
	rootCmd.AddCommand(NewCatalogCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the schemacraft version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			// Set GoVersion to actual runtime if not set at build time
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			out := cmd.OutOrStdout()

			for _, line := range [][2]string{
				{"schemacraft version: ", Version},
				{"Git commit: ", GitCommit},
				{"Build date: ", BuildDate},
				{"Go version: ", goVer},
			} {
				titleColor.Fprint(out, line[0])
				fmt.Fprintln(out, line[1])
			}
		},
	}
}

// session carries what the commands load before doing their work
type session struct {
	cfg     *config.Config
	logger  *zap.Logger
	noColor bool
}

func newSession(cmd *cobra.Command) (*session, error) {
	path, _ := cmd.Flags().GetString("config")
	noColor, _ := cmd.Flags().GetBool("no-color")

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), noColor))
		return nil, &reportedError{err: err}
	}

	logger, err := logging.New(logging.Resolve(logging.ProfileRuntime, cfg.Log.Level, cfg.Log.Development))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &session{cfg: cfg, logger: logger, noColor: noColor}, nil
}

func (s *session) close() {
	_ = s.logger.Sync()
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			errorColor := color.New(color.FgRed, color.Bold)
			errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return err
	}
	return nil
}
