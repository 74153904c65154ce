package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/schemacraft/internal/catalog"
	"github.com/conduit-lang/schemacraft/internal/cli/ui"
)

// NewCatalogCommand creates the catalog command
func NewCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Publish and serve compiled schemas",
		Long: `Manage the schema catalog.

The catalog backend is chosen with catalog.driver in schemacraft.yml
(memory, sqlite3, postgres, pgx or redis).

Available subcommands:
  publish - Compile a model file and publish its schemas
  list    - List published schemas
  show    - Print one published schema
  delete  - Remove a published schema
  serve   - Serve the catalog over HTTP`,
	}

	cmd.AddCommand(newCatalogPublishCommand())
	cmd.AddCommand(newCatalogListCommand())
	cmd.AddCommand(newCatalogShowCommand())
	cmd.AddCommand(newCatalogDeleteCommand())
	cmd.AddCommand(newCatalogServeCommand())

	return cmd
}

func (s *session) openCatalog(ctx context.Context) (catalog.Store, error) {
	store, err := catalog.Open(ctx, s.cfg.CatalogStoreConfig(), s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return store, nil
}

func newCatalogPublishCommand() *cobra.Command {
	opts := &compileOptions{}

	cmd := &cobra.Command{
		Use:   "publish <model-file>",
		Short: "Compile a model file and publish its schemas",
		Args:  cobra.ExactArgs(1),
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

			store, err := s.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := catalog.Publish(cmd.Context(), store, res.models...)
			for _, e := range entries {
				ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("Published %s (%s)", e.Name, e.ID), s.noColor)
			}
			return err
		},
	}

	opts.bind(cmd)
	return cmd
}

func newCatalogListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List published schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			store, err := s.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No schemas published")
				return nil
			}

			table := ui.NewTable(cmd.OutOrStdout(), []string{"Name", "Class", "Revision", "Warnings", "Compiled"}, s.noColor)
			for _, e := range entries {
				table.AddRow(
					e.Name,
					e.Class,
					e.ID.String()[:8],
					strconv.Itoa(len(e.Diagnostics)),
					e.CompiledAt.Format(time.RFC3339),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newCatalogShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a published schema document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			store, err := s.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			e, err := store.Get(cmd.Context(), args[0])
			if errors.Is(err, catalog.ErrNotFound) {
				return fmt.Errorf("schema %s is not published", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(e.Document))
			return nil
		},
	}
}

func newCatalogDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a published schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			store, err := s.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, catalog.ErrNotFound) {
					return fmt.Errorf("schema %s is not published", args[0])
				}
				return err
			}
			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("Deleted %s", args[0]), s.noColor)
			return nil
		},
	}
}

func newCatalogServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over a read-only HTTP API",
		Long: `Serve the catalog over HTTP until interrupted.

Routes:
  GET /healthz         - liveness check
  GET /schemas         - list published schemas
  GET /schemas/{name}  - one published schema`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := s.openCatalog(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if addr == "" {
				addr = s.cfg.ServerAddr()
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Serving catalog on http://%s\n", addr)
			return catalog.NewServer(store, s.logger).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.host:server.port from config)")
	return cmd
}
