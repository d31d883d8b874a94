package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/filtersql/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config is loaded before any subcommand runs.
	Config *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the filtersql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "filtersql",
		Short: "Compile Mongo-style JSON filters to parameterized SQL",
		Long: `filtersql turns declarative JSON filters such as {"age": {"$gte": 18}}
into parameterized SQL WHERE clauses over a JSON metadata column, for
PostgreSQL JSONB (dialect "full") or SQLite JSON functions ("embedded").

Settings come from filtersql.yaml, FILTERSQL_* environment variables,
and flags, in increasing priority.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			level := slog.LevelWarn
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

			cfg, err := config.Load(opts.ConfigPath, cmd.Flags())
			if err != nil {
				return opts.formatter(cmd).Fail(ErrCodeConfig, "load config", err)
			}
			opts.Config = cfg
			slog.Debug("config loaded",
				"dialect", cfg.Dialect,
				"column", cfg.Column,
				"max_depth", cfg.MaxDepth,
			)
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (default ./filtersql.yaml if present)")
	flags.StringP("dialect", "d", "", "SQL dialect: full (postgres) or embedded (sqlite)")
	flags.String("column", "", "JSON column name")
	flags.Int("max-depth", 0, "maximum filter nesting depth (0 = unlimited)")
	flags.String("db", "", "SQLite database path (embedded dialect)")
	flags.String("dsn", "", "PostgreSQL connection string (full dialect)")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// formatter builds the OutputFormatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
